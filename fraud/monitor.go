package fraud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/account"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/notify"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// HighValueThreshold is the withdrawal amount that triggers a MEDIUM alert.
var HighValueThreshold = decimal.NewFromInt(5000)

const (
	// RapidWindow is the interval within which consecutive withdrawals count
	// toward the rapid-withdrawal rule.
	RapidWindow = 60 * time.Second

	failedPinThreshold  = 3
	rapidThreshold      = 3
	autoFreezeThreshold = 3
)

// accountState is the rolling heuristic state for one account. alertCount is
// cumulative and survives administrative resets of the rolling fields.
type accountState struct {
	rapidCount     int
	lastWithdrawal time.Time
	highValueCount int
	alertCount     int
}

// Monitor runs the fraud heuristics. Observe is called synchronously by engine
// workers after a transaction attempts or completes.
type Monitor struct {
	repo     *account.Repository
	alerts   sink.Appender
	notifier notify.Notifier
	logger   *zap.Logger
	clock    func() time.Time

	mu          sync.Mutex
	state       map[int]*accountState
	totalAlerts int
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source. Tests use this to drive the
// rapid-withdrawal window deterministically.
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewMonitor creates a monitor over repo. Alerts are appended to alerts and
// forwarded through notifier; either may be nil to disable that side channel.
func NewMonitor(repo *account.Repository, alerts sink.Appender, notifier notify.Notifier, opts ...Option) *Monitor {
	m := &Monitor{
		repo:     repo,
		alerts:   alerts,
		notifier: notifier,
		logger:   zap.NewNop(),
		clock:    time.Now,
		state:    make(map[int]*accountState),
	}

	if m.notifier == nil {
		m.notifier = notify.Nop{}
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// stateFor requires m.mu to be held.
func (m *Monitor) stateFor(accountID int) *accountState {
	st, ok := m.state[accountID]
	if !ok {
		st = &accountState{}
		m.state[accountID] = st
	}

	return st
}

// Observe evaluates the heuristics for one transaction.
func (m *Monitor) Observe(tx transaction.Transaction) {
	acct, ok := m.repo.Get(tx.AccountID)
	if !ok {
		return
	}

	if attempts := acct.FailedPinAttempts(); attempts >= failedPinThreshold {
		m.Raise(tx.AccountID, fmt.Sprintf("Multiple failed PIN attempts (%d)", attempts), SeverityHigh)
	}

	if tx.Type == transaction.TypeWithdraw {
		m.observeWithdrawal(tx)
	}
}

// observeWithdrawal applies the high-value and rapid-withdrawal rules.
func (m *Monitor) observeWithdrawal(tx transaction.Transaction) {
	now := m.clock()
	highValue := tx.Amount.GreaterThanOrEqual(HighValueThreshold)

	m.mu.Lock()
	st := m.stateFor(tx.AccountID)

	if highValue {
		st.highValueCount++
	}

	rapid := false
	rapidCount := 0

	if !st.lastWithdrawal.IsZero() && now.Sub(st.lastWithdrawal) < RapidWindow {
		st.rapidCount++
		if st.rapidCount >= rapidThreshold {
			rapid = true
			rapidCount = st.rapidCount
			st.rapidCount = 0
		}
	} else {
		// This withdrawal starts a new window.
		st.rapidCount = 1
	}

	st.lastWithdrawal = now
	m.mu.Unlock()

	if highValue {
		m.Raise(tx.AccountID, fmt.Sprintf("High-value withdrawal: $%s", tx.Amount.StringFixed(2)), SeverityMedium)
	}

	if rapid {
		m.Raise(tx.AccountID, fmt.Sprintf("Rapid withdrawals detected: %d withdrawals in short time", rapidCount), SeverityHigh)
	}
}

// Raise records an alert, emits it to the side channels, and freezes the
// account once its cumulative alert count reaches the auto-freeze threshold.
// It is exported so the engine can escalate conditions the heuristics cannot
// see, such as a failed transfer compensation.
func (m *Monitor) Raise(accountID int, reason string, severity Severity) {
	alert := Alert{
		AccountID: accountID,
		Reason:    reason,
		Severity:  severity,
		Timestamp: m.clock(),
	}

	m.mu.Lock()
	m.totalAlerts++
	st := m.stateFor(accountID)
	st.alertCount++
	count := st.alertCount
	m.mu.Unlock()

	m.logger.Warn("fraud alert",
		zap.Int("account_id", alert.AccountID),
		zap.String("severity", string(alert.Severity)),
		zap.String("reason", alert.Reason),
	)

	if m.alerts != nil {
		if err := m.alerts.Append(alert.LogLine()); err != nil {
			m.logger.Warn("fraud alert sink append failed", zap.Error(err))
		}
	}

	subject := fmt.Sprintf("Fraud Alert for Account %d", alert.AccountID)
	if err := m.notifier.Notify(context.Background(), subject, alert.LogLine()); err != nil {
		m.logger.Warn("fraud notification failed", zap.Error(err))
	}

	if count >= autoFreezeThreshold {
		m.repo.SetFrozen(accountID, true)

		if m.alerts != nil {
			line := fmt.Sprintf("%s | AccountId: %d | Account auto-frozen after %d fraud alerts",
				m.clock().Format(transaction.TimeFormat), accountID, count)
			if err := m.alerts.Append(line); err != nil {
				m.logger.Warn("fraud alert sink append failed", zap.Error(err))
			}
		}

		m.logger.Warn("account auto-frozen", zap.Int("account_id", accountID), zap.Int("alert_count", count))
	}
}

// ResetAccountMonitoring clears the rolling heuristic state for an account.
// Cumulative alert bookkeeping, and any freeze already applied, are kept.
func (m *Monitor) ResetAccountMonitoring(accountID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.state[accountID]
	if !ok {
		return
	}

	st.rapidCount = 0
	st.lastWithdrawal = time.Time{}
	st.highValueCount = 0
}

// TotalAlerts returns the global alert count.
func (m *Monitor) TotalAlerts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalAlerts
}

// AlertCount returns the cumulative alert count for one account.
func (m *Monitor) AlertCount(accountID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.state[accountID]; ok {
		return st.alertCount
	}

	return 0
}

// HighValueCount returns the informational high-value withdrawal counter for
// one account.
func (m *Monitor) HighValueCount(accountID int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, ok := m.state[accountID]; ok {
		return st.highValueCount
	}

	return 0
}
