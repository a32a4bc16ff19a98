package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier sends one (subject, body) notification pair, best-effort.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Nop discards all notifications.
type Nop struct{}

// Notify implements Notifier and does nothing.
func (Nop) Notify(context.Context, string, string) error { return nil }

// ZapNotifier writes notifications to the structured log. It stands in for a
// real delivery channel such as email, which this system deliberately omits.
type ZapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier creates a notifier logging at info level.
func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ZapNotifier{logger: logger}
}

// Notify logs the notification.
func (n *ZapNotifier) Notify(_ context.Context, subject, body string) error {
	n.logger.Info("fraud notification",
		zap.String("subject", subject),
		zap.String("body", body),
	)

	return nil
}

// AMQPChannel is the subset of *amqp091.Channel the AMQP notifier publishes
// through. Narrowing the dependency keeps the notifier testable without a
// running broker.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Message is the JSON payload published per notification.
type Message struct {
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// AMQPNotifier publishes notifications to an exchange with a routing key.
type AMQPNotifier struct {
	channel        AMQPChannel
	exchange       string
	routingKey     string
	publishTimeout time.Duration
}

// AMQPOption configures an AMQPNotifier.
type AMQPOption func(*AMQPNotifier)

// WithRoutingKey overrides the default "fraud.alert" routing key.
func WithRoutingKey(key string) AMQPOption {
	return func(n *AMQPNotifier) {
		n.routingKey = key
	}
}

// WithPublishTimeout bounds each publish call. Defaults to 5 seconds.
func WithPublishTimeout(d time.Duration) AMQPOption {
	return func(n *AMQPNotifier) {
		if d > 0 {
			n.publishTimeout = d
		}
	}
}

// NewAMQPNotifier creates a notifier publishing to exchange through channel.
func NewAMQPNotifier(channel AMQPChannel, exchange string, opts ...AMQPOption) (*AMQPNotifier, error) {
	if channel == nil {
		return nil, fmt.Errorf("amqp notifier: channel is nil")
	}

	n := &AMQPNotifier{
		channel:        channel,
		exchange:       exchange,
		routingKey:     "fraud.alert",
		publishTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// Notify publishes the notification as a persistent JSON message.
func (n *AMQPNotifier) Notify(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(Message{Subject: subject, Body: body, SentAt: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.publishTimeout)
	defer cancel()

	err = n.channel.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}
