// Package atm is the customer-facing entry point. It wraps the transaction
// engine, stamping each request with the originating ATM and customer and
// recording every event to the ATM activity log before submission.
package atm
