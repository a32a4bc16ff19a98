// Package report builds end-of-day summaries from the transaction log,
// the account repository, and the fraud monitor.
package report
