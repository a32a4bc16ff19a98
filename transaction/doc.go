// Package transaction defines the immutable value types that flow through the
// banking engine: the requested operation, the per-submission result, and the
// domain error codes carried by failed results.
//
// Amounts are decimal.Decimal throughout; PINs travel in-memory only and are
// never included in string renderings or log lines.
package transaction
