package fraud

import (
	"fmt"
	"time"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// Severity ranks how suspicious an alert is.
type Severity string

const (
	// SeverityLow marks informational signals.
	SeverityLow Severity = "LOW"
	// SeverityMedium marks signals worth reviewing.
	SeverityMedium Severity = "MEDIUM"
	// SeverityHigh marks signals requiring immediate attention.
	SeverityHigh Severity = "HIGH"
)

// Alert is one immutable suspicion record tied to an account.
type Alert struct {
	AccountID int
	Reason    string
	Severity  Severity
	Timestamp time.Time
}

// LogLine renders the alert in the fraud report format.
func (a Alert) LogLine() string {
	return fmt.Sprintf("%s | AccountId: %d | Severity: %s | Reason: %s",
		a.Timestamp.Format(transaction.TimeFormat), a.AccountID, a.Severity, a.Reason)
}

// String renders the alert for console and diagnostic output.
func (a Alert) String() string {
	return fmt.Sprintf("FraudAlert[AccountId=%d, Reason=%s, Severity=%s, Time=%s]",
		a.AccountID, a.Reason, a.Severity, a.Timestamp.Format(transaction.TimeFormat))
}
