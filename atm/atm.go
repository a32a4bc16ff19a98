package atm

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/engine"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

// Request is one customer interaction at a terminal.
type Request struct {
	Transaction transaction.Transaction
	Customer    string
}

// Service fronts the engine for one ATM terminal.
type Service struct {
	id       string
	engine   *engine.Engine
	activity sink.Appender
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivityLog sets the append-only sink receiving one line per request.
func WithActivityLog(appender sink.Appender) Option {
	return func(s *Service) {
		s.activity = appender
	}
}

// NewService creates a terminal facade over eng identified by id.
func NewService(id string, eng *engine.Engine, opts ...Option) *Service {
	s := &Service{
		id:     id,
		engine: eng,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ID returns the terminal identifier.
func (s *Service) ID() string { return s.id }

// NewWithdrawRequest builds a withdrawal request for customer.
func (s *Service) NewWithdrawRequest(customer string, accountID int, amount decimal.Decimal, pin string) Request {
	return Request{Transaction: transaction.NewWithdraw(accountID, amount, pin), Customer: customer}
}

// NewDepositRequest builds a deposit request for customer.
func (s *Service) NewDepositRequest(customer string, accountID int, amount decimal.Decimal, pin string) Request {
	return Request{Transaction: transaction.NewDeposit(accountID, amount, pin), Customer: customer}
}

// NewTransferRequest builds a transfer request for customer, debiting
// accountID and crediting targetID.
func (s *Service) NewTransferRequest(customer string, accountID, targetID int, amount decimal.Decimal, pin string) Request {
	return Request{Transaction: transaction.NewTransfer(accountID, targetID, amount, pin), Customer: customer}
}

// NewBalanceInquiryRequest builds a balance inquiry request for customer.
func (s *Service) NewBalanceInquiryRequest(customer string, accountID int, pin string) Request {
	return Request{Transaction: transaction.NewBalanceInquiry(accountID, pin), Customer: customer}
}

// Process records the request to the activity log and submits it to the
// engine. The returned future resolves when the engine has processed it.
func (s *Service) Process(req Request) (*engine.Future, error) {
	if s.activity != nil {
		line := fmt.Sprintf("%s | ATM: %s | Customer: %s | %s",
			time.Now().Format(transaction.TimeFormat), s.id, req.Customer, req.Transaction)
		if err := s.activity.Append(line); err != nil {
			s.logger.Warn("ATM activity log append failed", zap.Error(err))
		}
	}

	fut, err := s.engine.Submit(req.Transaction)
	if err != nil {
		s.logger.Warn("request rejected",
			zap.String("atm_id", s.id),
			zap.String("customer", req.Customer),
			zap.String("transaction_id", req.Transaction.ID.String()),
			zap.Error(err),
		)

		return nil, err
	}

	s.logger.Debug("request submitted",
		zap.String("atm_id", s.id),
		zap.String("customer", req.Customer),
		zap.String("transaction_id", req.Transaction.ID.String()),
	)

	return fut, nil
}
