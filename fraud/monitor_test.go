package fraud

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/account"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// failingNotifier always errors, simulating an unreachable channel.
type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, string, string) error {
	return errors.New("notification channel down")
}

// fixture wires a monitor over one salary account with a controllable clock.
type fixture struct {
	repo    *account.Repository
	alerts  *sink.MemoryAppender
	monitor *Monitor
	now     time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	repo := account.NewRepository()

	acct, err := account.New(1001, "Alice Johnson", decimal.NewFromInt(100000), "1234", account.KindSalary)
	require.NoError(t, err)
	repo.Add(acct)

	f := &fixture{
		repo:   repo,
		alerts: sink.NewMemoryAppender(),
		now:    time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}

	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	f.monitor = NewMonitor(repo, f.alerts, nil, opts...)

	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func (f *fixture) withdraw(amount int64) transaction.Transaction {
	return transaction.NewWithdraw(1001, decimal.NewFromInt(amount), "1234")
}

func alertLines(lines []string, fragment string) []string {
	var out []string

	for _, line := range lines {
		if strings.Contains(line, fragment) {
			out = append(out, line)
		}
	}

	return out
}

func TestFailedPinRule(t *testing.T) {
	f := newFixture(t)

	acct, _ := f.repo.Get(1001)
	acct.ValidatePin("0000")
	acct.ValidatePin("0000")

	// Two failures are below the threshold.
	f.monitor.Observe(transaction.NewBalanceInquiry(1001, "0000"))
	assert.Equal(t, 0, f.monitor.TotalAlerts())

	acct.ValidatePin("0000")
	f.monitor.Observe(transaction.NewBalanceInquiry(1001, "0000"))

	require.Equal(t, 1, f.monitor.TotalAlerts())
	lines := alertLines(f.alerts.Lines(), "failed PIN")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Severity: HIGH")
	assert.Contains(t, lines[0], "AccountId: 1001")
}

func TestHighValueWithdrawalRule(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(f.withdraw(4999))
	assert.Equal(t, 0, f.monitor.TotalAlerts())

	f.advance(2 * time.Minute)
	f.monitor.Observe(f.withdraw(5000))

	require.Equal(t, 1, f.monitor.TotalAlerts())
	assert.Equal(t, 1, f.monitor.HighValueCount(1001))

	lines := alertLines(f.alerts.Lines(), "High-value withdrawal")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Severity: MEDIUM")
	assert.Contains(t, lines[0], "$5000.00")
}

func TestHighValueAlertsIgnoreDeposits(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(transaction.NewDeposit(1001, decimal.NewFromInt(9000), "1234"))
	assert.Equal(t, 0, f.monitor.TotalAlerts())
}

func TestRapidWithdrawalRule(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(f.withdraw(100))
	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))
	assert.Equal(t, 0, f.monitor.TotalAlerts(), "two rapid withdrawals are below the threshold")

	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))

	require.Equal(t, 1, f.monitor.TotalAlerts())
	lines := alertLines(f.alerts.Lines(), "Rapid withdrawals")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Severity: HIGH")

	// The rolling count reset to zero: the next rapid withdrawal starts over.
	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))
	assert.Equal(t, 1, f.monitor.TotalAlerts())
}

func TestRapidWindowExpiryResetsToOne(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(f.withdraw(100))
	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))

	// The gap exceeds the window, so this withdrawal starts a new window
	// counting as the first, not the zeroth.
	f.advance(2 * time.Minute)
	f.monitor.Observe(f.withdraw(100))
	assert.Equal(t, 0, f.monitor.TotalAlerts())

	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))
	f.advance(10 * time.Second)
	f.monitor.Observe(f.withdraw(100))

	assert.Equal(t, 1, f.monitor.TotalAlerts(), "third withdrawal in the new window must alert")
}

func TestAutoFreezeAfterThreeAlerts(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		f.monitor.Observe(f.withdraw(6000))
		f.advance(5 * time.Minute) // keep the rapid rule out of the picture
	}

	require.Equal(t, 3, f.monitor.TotalAlerts())
	assert.Equal(t, 3, f.monitor.AlertCount(1001))

	acct, _ := f.repo.Get(1001)
	assert.True(t, acct.IsFrozen(), "third alert must auto-freeze the account")

	frozen := alertLines(f.alerts.Lines(), "auto-frozen")
	require.Len(t, frozen, 1)
	assert.Contains(t, frozen[0], "AccountId: 1001")
}

func TestNotifierFailureIsSwallowed(t *testing.T) {
	repo := account.NewRepository()

	acct, err := account.New(1001, "Alice", decimal.NewFromInt(10000), "1234", account.KindSalary)
	require.NoError(t, err)
	repo.Add(acct)

	alerts := sink.NewMemoryAppender()
	monitor := NewMonitor(repo, alerts, failingNotifier{})

	monitor.Raise(1001, "manual probe", SeverityLow)

	assert.Equal(t, 1, monitor.TotalAlerts())
	assert.Equal(t, 1, alerts.Len(), "alert must still reach the report sink")
}

func TestObserveUnknownAccountIsNoOp(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(transaction.NewWithdraw(9999, decimal.NewFromInt(6000), "1234"))
	assert.Equal(t, 0, f.monitor.TotalAlerts())
}

func TestResetAccountMonitoringKeepsCumulativeCounts(t *testing.T) {
	f := newFixture(t)

	f.monitor.Observe(f.withdraw(6000))
	require.Equal(t, 1, f.monitor.AlertCount(1001))
	require.Equal(t, 1, f.monitor.HighValueCount(1001))

	f.monitor.ResetAccountMonitoring(1001)

	assert.Equal(t, 1, f.monitor.AlertCount(1001), "cumulative alert count survives the reset")
	assert.Equal(t, 0, f.monitor.HighValueCount(1001))

	// Rolling window restarts: two quick withdrawals after the reset do not
	// count the pre-reset one.
	f.advance(time.Second)
	f.monitor.Observe(f.withdraw(100))
	f.advance(time.Second)
	f.monitor.Observe(f.withdraw(100))
	assert.Equal(t, 1, f.monitor.TotalAlerts())
}
