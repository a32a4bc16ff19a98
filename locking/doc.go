// Package locking grants per-account mutual exclusion with a canonical
// acquisition order for two-account operations.
//
// A two-account operation must take both locks through AcquirePair, which
// always locks in ascending account-id order regardless of argument order;
// taking two account locks through separate AcquireSingle calls reintroduces
// the circular-wait deadlock this package exists to prevent. Lock objects are
// created lazily, one per account id, and live for the process lifetime.
package locking
