package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/account"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/fraud"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/locking"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

const (
	// DefaultWorkerCount bounds concurrent in-flight transactions.
	DefaultWorkerCount = 10
	// DefaultQueueSize bounds transactions accepted but not yet dispatched.
	DefaultQueueSize = 256
	// DefaultDrainTimeout bounds how long Shutdown waits for in-flight work.
	DefaultDrainTimeout = 60 * time.Second
)

var (
	// ErrShuttingDown is returned by Submit once shutdown has begun.
	ErrShuttingDown = errors.New("engine: not accepting new transactions")
	// ErrDrainTimeout is returned by Shutdown when in-flight work did not
	// drain in time and queued transactions were force-completed as failures.
	ErrDrainTimeout = errors.New("engine: drain timeout exceeded")
)

type job struct {
	tx  transaction.Transaction
	fut *Future
}

// Engine is the transaction engine: the sole mutation entry point over the
// account repository.
type Engine struct {
	repo    *account.Repository
	locks   *locking.Coordinator
	monitor *fraud.Monitor
	txLog   sink.Appender
	logger  *zap.Logger
	tracer  trace.Tracer

	workers      int
	queueSize    int
	drainTimeout time.Duration

	jobs    chan job
	wg      sync.WaitGroup
	aborted atomic.Bool

	mu        sync.Mutex
	accepting bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithQueueSize sets the pending-transaction queue capacity.
func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithDrainTimeout bounds the graceful drain during Shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.drainTimeout = d
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer overrides the tracer used for per-transaction spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithTransactionLog sets the append-only sink receiving one line per outcome.
func WithTransactionLog(appender sink.Appender) Option {
	return func(e *Engine) {
		e.txLog = appender
	}
}

// New creates an engine over repo and starts its worker pool. monitor may be
// nil to run without fraud surveillance.
func New(repo *account.Repository, monitor *fraud.Monitor, opts ...Option) *Engine {
	e := &Engine{
		repo:         repo,
		locks:        locking.NewCoordinator(),
		monitor:      monitor,
		logger:       zap.NewNop(),
		tracer:       otel.Tracer("banking/engine"),
		workers:      DefaultWorkerCount,
		queueSize:    DefaultQueueSize,
		drainTimeout: DefaultDrainTimeout,
		accepting:    true,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.jobs = make(chan job, e.queueSize)

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)

		go e.worker()
	}

	return e
}

// Submit enqueues one transaction and returns its Future. The caller blocks
// only while the pending queue is full. After shutdown has begun Submit
// returns ErrShuttingDown.
func (e *Engine) Submit(tx transaction.Transaction) (*Future, error) {
	// The mutex is held across the send so Shutdown cannot close the queue
	// between the accepting check and the enqueue.
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.accepting {
		return nil, ErrShuttingDown
	}

	fut := newFuture()
	e.jobs <- job{tx: tx, fut: fut}

	return fut, nil
}

// Shutdown stops intake and waits for queued and in-flight transactions to
// drain. When ctx is done or the drain timeout elapses first, remaining queued
// transactions are force-completed with failure results and ErrDrainTimeout
// (or the ctx error) is returned. Shutdown is idempotent.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if e.accepting {
		e.accepting = false
		close(e.jobs)
	}
	e.mu.Unlock()

	done := make(chan struct{})

	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(e.drainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		e.logger.Info("engine drained")
		return nil
	case <-ctx.Done():
		e.abortAndWait(done)
		return ctx.Err()
	case <-timer.C:
		e.abortAndWait(done)
		return ErrDrainTimeout
	}
}

// abortAndWait flips the abort flag so workers fail remaining queued work,
// then waits for the pool to stop. Dispatched transactions still run to
// completion; only undispatched ones are failed.
func (e *Engine) abortAndWait(done <-chan struct{}) {
	e.logger.Warn("engine drain timed out, failing queued transactions")
	e.aborted.Store(true)
	<-done
}

func (e *Engine) worker() {
	defer e.wg.Done()

	for j := range e.jobs {
		if e.aborted.Load() {
			res := transaction.Failed(transaction.CodeEngineShutdown,
				"engine shut down before the transaction was processed",
				decimal.Zero, j.tx.Type, j.tx.AccountID)
			e.logOutcome(j.tx, res)
			j.fut.complete(res)

			continue
		}

		j.fut.complete(e.process(j.tx))
	}
}

// process runs one transaction under a span and logs its outcome. Worker
// panics are recovered into failure results so a poisoned transaction cannot
// take down the pool.
func (e *Engine) process(tx transaction.Transaction) (res transaction.Result) {
	_, span := e.tracer.Start(context.Background(), "engine.process",
		trace.WithAttributes(
			attribute.String("transaction.id", tx.ID.String()),
			attribute.String("transaction.type", string(tx.Type)),
			attribute.Int("account.id", tx.AccountID),
		))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic while processing transaction",
				zap.Any("panic", r),
				zap.String("transaction_id", tx.ID.String()),
				zap.Stack("stack"),
			)

			res = transaction.Failed(transaction.CodeInternal, "internal error",
				decimal.Zero, tx.Type, tx.AccountID)
			e.logOutcome(tx, res)
			span.SetStatus(codes.Error, string(transaction.CodeInternal))
		}
	}()

	res = e.dispatch(tx)

	span.SetAttributes(attribute.Bool("transaction.success", res.Success))

	if !res.Success {
		span.SetStatus(codes.Error, string(res.Code))
	}

	e.logOutcome(tx, res)

	return res
}

func (e *Engine) dispatch(tx transaction.Transaction) transaction.Result {
	switch tx.Type {
	case transaction.TypeWithdraw:
		return e.processWithdraw(tx)
	case transaction.TypeDeposit:
		return e.processDeposit(tx)
	case transaction.TypeTransfer:
		return e.processTransfer(tx)
	case transaction.TypeBalanceInquiry:
		return e.processBalanceInquiry(tx)
	default:
		return transaction.Failed(transaction.CodeUnknownType,
			fmt.Sprintf("unknown transaction type %q", tx.Type),
			decimal.Zero, tx.Type, tx.AccountID)
	}
}

func (e *Engine) processWithdraw(tx transaction.Transaction) transaction.Result {
	acct, ok := e.repo.Get(tx.AccountID)
	if !ok {
		return transaction.Failed(transaction.CodeAccountNotFound, "account not found",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	if acct.IsFrozen() {
		return transaction.Failed(transaction.CodeAccountFrozen, "account is frozen",
			acct.Balance(), tx.Type, tx.AccountID)
	}

	if !acct.ValidatePin(tx.PIN) {
		e.observe(tx)

		return transaction.Failed(transaction.CodeInvalidPin, "invalid PIN",
			acct.Balance(), tx.Type, tx.AccountID)
	}

	set := e.locks.AcquireSingle(tx.AccountID)
	withdrawn := acct.Withdraw(tx.Amount)
	balance := acct.Balance()
	e.locks.ReleaseSingle(set)

	if !withdrawn {
		return transaction.Failed(transaction.CodeInvalidAmount,
			"withdrawal failed: insufficient funds or invalid amount",
			balance, tx.Type, tx.AccountID)
	}

	res := transaction.Succeeded(
		fmt.Sprintf("withdrawal successful: $%s", tx.Amount.StringFixed(2)),
		balance, tx.Type, tx.AccountID)

	// Successful withdrawals feed the rapid and high-value heuristics.
	e.observe(tx)

	return res
}

func (e *Engine) processDeposit(tx transaction.Transaction) transaction.Result {
	acct, ok := e.repo.Get(tx.AccountID)
	if !ok {
		return transaction.Failed(transaction.CodeAccountNotFound, "account not found",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	if acct.IsFrozen() {
		return transaction.Failed(transaction.CodeAccountFrozen, "account is frozen",
			acct.Balance(), tx.Type, tx.AccountID)
	}

	if !acct.ValidatePin(tx.PIN) {
		e.observe(tx)

		return transaction.Failed(transaction.CodeInvalidPin, "invalid PIN",
			acct.Balance(), tx.Type, tx.AccountID)
	}

	set := e.locks.AcquireSingle(tx.AccountID)
	deposited := acct.Deposit(tx.Amount)
	balance := acct.Balance()
	e.locks.ReleaseSingle(set)

	if !deposited {
		return transaction.Failed(transaction.CodeInvalidAmount,
			"deposit failed: invalid amount", balance, tx.Type, tx.AccountID)
	}

	return transaction.Succeeded(
		fmt.Sprintf("deposit successful: $%s", tx.Amount.StringFixed(2)),
		balance, tx.Type, tx.AccountID)
}

func (e *Engine) processTransfer(tx transaction.Transaction) transaction.Result {
	if tx.TargetAccountID == nil {
		return transaction.Failed(transaction.CodeMissingTarget, "target account not specified",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	source, sourceOK := e.repo.Get(tx.AccountID)
	target, targetOK := e.repo.Get(*tx.TargetAccountID)

	if !sourceOK || !targetOK {
		return transaction.Failed(transaction.CodeAccountNotFound, "one or both accounts not found",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	if source.IsFrozen() {
		return transaction.Failed(transaction.CodeAccountFrozen, "source account is frozen",
			source.Balance(), tx.Type, tx.AccountID)
	}

	if target.IsFrozen() {
		return transaction.Failed(transaction.CodeAccountFrozen, "target account is frozen",
			target.Balance(), tx.Type, tx.AccountID)
	}

	if !source.ValidatePin(tx.PIN) {
		e.observe(tx)

		return transaction.Failed(transaction.CodeInvalidPin, "invalid PIN",
			source.Balance(), tx.Type, tx.AccountID)
	}

	return e.transferLocked(tx, source, target)
}

// transferLocked runs the two-phase transfer under the ordered pair-lock. The
// deferred release runs on every exit path.
func (e *Engine) transferLocked(tx transaction.Transaction, source, target *account.Account) transaction.Result {
	set := e.locks.AcquirePair(tx.AccountID, *tx.TargetAccountID)
	defer e.locks.Release(set)

	// The balance may have changed between the pre-checks and lock
	// acquisition; re-check before mutating.
	if source.Balance().LessThan(tx.Amount) {
		return transaction.Failed(transaction.CodeInsufficientFunds, "insufficient funds for transfer",
			source.Balance(), tx.Type, tx.AccountID)
	}

	if !source.Withdraw(tx.Amount) {
		return transaction.Failed(transaction.CodeInvalidAmount,
			"transfer failed: could not withdraw from source",
			source.Balance(), tx.Type, tx.AccountID)
	}

	if !target.Deposit(tx.Amount) {
		// Compensate by restoring the withdrawn amount. This is a local
		// recovery, not an atomic rollback.
		if !source.Deposit(tx.Amount) {
			e.logger.Error("transfer compensation failed, funds require manual reconciliation",
				zap.String("transaction_id", tx.ID.String()),
				zap.Int("source_account", tx.AccountID),
				zap.Int("target_account", *tx.TargetAccountID),
				zap.String("amount", tx.Amount.StringFixed(2)),
			)

			if e.monitor != nil {
				e.monitor.Raise(tx.AccountID,
					"Transfer compensation failed: manual reconciliation required", fraud.SeverityHigh)
			}
		}

		return transaction.Failed(transaction.CodePartialTransferFailure,
			"transfer failed: could not deposit to target",
			source.Balance(), tx.Type, tx.AccountID)
	}

	res := transaction.Succeeded(
		fmt.Sprintf("transfer successful: $%s from account %d to account %d",
			tx.Amount.StringFixed(2), tx.AccountID, *tx.TargetAccountID),
		source.Balance(), tx.Type, tx.AccountID)

	e.observe(tx)

	return res
}

func (e *Engine) processBalanceInquiry(tx transaction.Transaction) transaction.Result {
	acct, ok := e.repo.Get(tx.AccountID)
	if !ok {
		return transaction.Failed(transaction.CodeAccountNotFound, "account not found",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	if acct.IsFrozen() {
		return transaction.Failed(transaction.CodeAccountFrozen, "account is frozen",
			acct.Balance(), tx.Type, tx.AccountID)
	}

	if !acct.ValidatePin(tx.PIN) {
		e.observe(tx)

		return transaction.Failed(transaction.CodeInvalidPin, "invalid PIN",
			decimal.Zero, tx.Type, tx.AccountID)
	}

	set := e.locks.AcquireSingle(tx.AccountID)
	balance := acct.Balance()
	e.locks.ReleaseSingle(set)

	return transaction.Succeeded(
		fmt.Sprintf("balance inquiry: $%s", balance.StringFixed(2)),
		balance, tx.Type, tx.AccountID)
}

func (e *Engine) observe(tx transaction.Transaction) {
	if e.monitor != nil {
		e.monitor.Observe(tx)
	}
}

// logOutcome appends the append-only log line and emits a diagnostic entry.
// Sink failures are logged and swallowed.
func (e *Engine) logOutcome(tx transaction.Transaction, res transaction.Result) {
	if e.txLog != nil {
		line := fmt.Sprintf("%s | %s | %s", res.CompletedAt.Format(transaction.TimeFormat), tx, res)
		if err := e.txLog.Append(line); err != nil {
			e.logger.Warn("transaction log append failed", zap.Error(err))
		}
	}

	fields := []zap.Field{
		zap.String("transaction_id", tx.ID.String()),
		zap.String("type", string(tx.Type)),
		zap.Int("account_id", tx.AccountID),
		zap.Bool("success", res.Success),
	}

	if res.Success {
		e.logger.Info("transaction completed", fields...)
	} else {
		fields = append(fields, zap.String("code", string(res.Code)), zap.String("message", res.Message))
		e.logger.Info("transaction failed", fields...)
	}
}
