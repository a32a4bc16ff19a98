package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/account"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/fraud"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// TypeStats aggregates the log entries of one transaction type.
type TypeStats struct {
	Count      int
	Successful int
	// Volume is the sum of amounts across successful entries.
	Volume decimal.Decimal
}

// Report is one generated summary.
type Report struct {
	GeneratedAt time.Time

	TotalTransactions int
	Successful        int
	Failed            int
	Malformed         int

	ByType   map[transaction.Type]TypeStats
	Accounts []account.Summary

	TotalFraudAlerts int
}

// SuccessRate returns the successful share in percent, zero when no entries
// were parsed.
func (r Report) SuccessRate() float64 {
	if r.TotalTransactions == 0 {
		return 0
	}

	return float64(r.Successful) / float64(r.TotalTransactions) * 100
}

// Generator builds reports. repo and monitor may be nil; the corresponding
// sections are then omitted.
type Generator struct {
	repo    *account.Repository
	monitor *fraud.Monitor
	logger  *zap.Logger
	clock   func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(g *Generator) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// NewGenerator creates a report generator.
func NewGenerator(repo *account.Repository, monitor *fraud.Monitor, opts ...Option) *Generator {
	g := &Generator{
		repo:    repo,
		monitor: monitor,
		logger:  zap.NewNop(),
		clock:   time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate aggregates the given transaction log lines together with the live
// repository and monitor state. Lines that do not parse are counted as
// malformed and skipped.
func (g *Generator) Generate(lines []string) Report {
	r := Report{
		GeneratedAt: g.clock(),
		ByType:      make(map[transaction.Type]TypeStats),
	}

	for _, line := range lines {
		entry, ok := parseLine(line)
		if !ok {
			r.Malformed++

			g.logger.Debug("skipping malformed log line", zap.String("line", line))

			continue
		}

		r.TotalTransactions++

		stats := r.ByType[entry.Type]
		stats.Count++

		if entry.Success {
			r.Successful++
			stats.Successful++
			stats.Volume = stats.Volume.Add(entry.Amount)
		} else {
			r.Failed++
		}

		r.ByType[entry.Type] = stats
	}

	if g.repo != nil {
		r.Accounts = g.repo.Snapshot()
	}

	if g.monitor != nil {
		r.TotalFraudAlerts = g.monitor.TotalAlerts()
	}

	return r
}

// Render formats the report as the daily text document.
func (r Report) Render() string {
	var b strings.Builder

	rule := strings.Repeat("=", 80)

	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "DAILY TRANSACTION REPORT - %s\n", r.GeneratedAt.Format(transaction.TimeFormat))
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "Total Transactions: %d\n", r.TotalTransactions)
	fmt.Fprintf(&b, "Successful: %d (%.1f%%)\n", r.Successful, r.SuccessRate())
	fmt.Fprintf(&b, "Failed: %d\n", r.Failed)

	if r.Malformed > 0 {
		fmt.Fprintf(&b, "Malformed log lines: %d\n", r.Malformed)
	}

	if len(r.ByType) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "By Type:")

		types := make([]transaction.Type, 0, len(r.ByType))
		for t := range r.ByType {
			types = append(types, t)
		}

		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

		for _, t := range types {
			stats := r.ByType[t]
			fmt.Fprintf(&b, "  %-16s count=%-5d successful=%-5d volume=$%s\n",
				t, stats.Count, stats.Successful, stats.Volume.StringFixed(2))
		}
	}

	if len(r.Accounts) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Account Summary:")

		for _, a := range r.Accounts {
			status := ""
			if a.Frozen {
				status = "  [FROZEN]"
			}

			fmt.Fprintf(&b, "  Account %d (%s, %s): balance=$%s transactions=%d%s\n",
				a.ID, a.Name, a.Kind, a.Balance.StringFixed(2), a.TransactionCount, status)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Fraud Alerts Raised: %d\n", r.TotalFraudAlerts)
	fmt.Fprintln(&b, rule)

	return b.String()
}

// WriteDaily generates the report from lines and appends its rendering to
// daily_report_YYYY-MM-DD.txt under dir, returning the file path.
func (g *Generator) WriteDaily(dir string, lines []string) (string, error) {
	r := g.Generate(lines)

	path := filepath.Join(dir, fmt.Sprintf("daily_report_%s.txt", r.GeneratedAt.Format("2006-01-02")))

	appender, err := sink.NewFileAppender(path, "")
	if err != nil {
		return "", fmt.Errorf("open report file: %w", err)
	}
	defer appender.Close()

	if err := appender.Append(r.Render()); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	g.logger.Info("daily report written",
		zap.String("path", path),
		zap.Int("transactions", r.TotalTransactions),
	)

	return path, nil
}

type logEntry struct {
	Type    transaction.Type
	Amount  decimal.Decimal
	Success bool
}

// parseLine reads one "timestamp | Transaction[...] | Result[...]" log line.
func parseLine(line string) (logEntry, bool) {
	parts := strings.SplitN(line, " | ", 3)
	if len(parts) != 3 {
		return logEntry{}, false
	}

	txType, ok := bracketField(parts[1], "Type")
	if !ok {
		return logEntry{}, false
	}

	amountStr, ok := bracketField(parts[1], "Amount")
	if !ok {
		return logEntry{}, false
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return logEntry{}, false
	}

	success, ok := bracketField(parts[2], "Success")
	if !ok {
		return logEntry{}, false
	}

	return logEntry{
		Type:    transaction.Type(txType),
		Amount:  amount,
		Success: success == "true",
	}, true
}

// bracketField extracts the value of key from a "Name[k=v, k=v, ...]" segment.
func bracketField(segment, key string) (string, bool) {
	open := strings.IndexByte(segment, '[')
	end := strings.LastIndexByte(segment, ']')

	if open < 0 || end <= open {
		return "", false
	}

	for _, kv := range strings.Split(segment[open+1:end], ", ") {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == key {
			return v, true
		}
	}

	return "", false
}
