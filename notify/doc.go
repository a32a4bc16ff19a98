// Package notify delivers fraud-alert notifications to an out-of-band channel.
//
// Delivery is fire-and-forget: notifier errors are surfaced to the caller for
// logging but must never fail the transaction that produced the alert. The
// AMQP notifier publishes through a narrow channel interface so tests can
// substitute a fake without a broker.
package notify
