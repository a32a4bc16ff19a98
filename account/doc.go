// Package account holds the mutable per-account state (balance, PIN hash,
// security counters, freeze flag) and the concurrent repository that owns all
// account instances.
//
// Every operation on a single account is serialized by that account's own
// mutex; multi-account sequences are coordinated externally by the lock
// coordinator. Savings and Salary accounts share one type and differ only in
// the withdrawal policy selected by Kind.
package account
