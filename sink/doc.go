// Package sink provides the append-only line sinks that form the system's only
// durable state: the transaction log and the fraud report.
//
// Appenders are best-effort collaborators; callers treat append failures as
// non-fatal and must never fail the originating transaction because of them.
package sink
