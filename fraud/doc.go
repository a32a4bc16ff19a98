// Package fraud evaluates stateful per-account heuristics after each
// transaction and raises alerts to an append-only report and a notification
// channel.
//
// Three rules run per observation: repeated failed PIN attempts, high-value
// withdrawals, and rapid withdrawal bursts inside a rolling window. Accounts
// accumulating enough alerts are frozen automatically through the repository.
// Sink and notifier failures are logged and swallowed; they never fail the
// observed transaction.
package fraud
