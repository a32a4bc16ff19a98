// Package engine executes banking transactions on a bounded worker pool.
//
// Submit validates nothing up front: it enqueues the transaction and returns a
// Future the caller may wait on. Workers run the per-type protocol (lookup,
// freeze check, PIN validation, locking, mutation, fraud observation) and
// complete the Future exactly once, for successes and failures alike. Transfers
// take both account locks through the ordered pair-lock; single-account
// operations take the single lock. Shutdown stops intake, drains in-flight work
// within a bounded timeout, and force-completes whatever remains queued with
// failure results so no Future is left dangling.
package engine
