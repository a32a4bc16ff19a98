// Command bankingsim seeds a small branch worth of accounts and drives them
// through concurrent ATM sessions, exercising withdrawals, deposits, transfers
// and the fraud heuristics, then writes the daily report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/account"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/atm"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/engine"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/fraud"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/notify"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/report"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/sink"
	"github.com/Nolexx07/Multi-Threaded-Banking-Transaction-System/transaction"
)

const fraudExchange = "banking.fraud"

func main() {
	var (
		logDir       = flag.String("log-dir", "logs", "directory for transaction, fraud and ATM activity logs")
		reportDir    = flag.String("report-dir", "reports", "directory for daily reports")
		workers      = flag.Int("workers", engine.DefaultWorkerCount, "transaction worker pool size")
		drainTimeout = flag.Duration("drain-timeout", 30*time.Second, "how long shutdown waits for in-flight transactions")
		amqpURL      = flag.String("amqp-url", "", "optional RabbitMQ URL for fraud notifications")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	logger, err := buildLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, *logDir, *reportDir, *workers, *drainTimeout, *amqpURL); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	return zap.NewProduction()
}

func run(logger *zap.Logger, logDir, reportDir string, workers int, drainTimeout time.Duration, amqpURL string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	txFile, err := sink.NewFileAppender(filepath.Join(logDir, "transactions.log"), "TRANSACTION LOG")
	if err != nil {
		return err
	}
	defer txFile.Close()

	alertFile, err := sink.NewFileAppender(filepath.Join(logDir, "fraud_alerts.log"), "FRAUD ALERTS")
	if err != nil {
		return err
	}
	defer alertFile.Close()

	activityFile, err := sink.NewFileAppender(filepath.Join(logDir, "atm_activity.log"), "ATM ACTIVITY")
	if err != nil {
		return err
	}
	defer activityFile.Close()

	// The in-memory copy feeds the report generator so the banner and prior
	// runs in the log file do not have to be re-parsed.
	txMemory := sink.NewMemoryAppender()
	txLog := sink.NewMultiAppender(txFile, txMemory)

	notifier, cleanup, err := buildNotifier(logger, amqpURL)
	if err != nil {
		return err
	}
	defer cleanup()

	repo := seedAccounts(logger)

	monitor := fraud.NewMonitor(repo, alertFile, notifier, fraud.WithLogger(logger))

	eng := engine.New(repo, monitor,
		engine.WithWorkers(workers),
		engine.WithDrainTimeout(drainTimeout),
		engine.WithLogger(logger),
		engine.WithTransactionLog(txLog),
	)

	terminals := []*atm.Service{
		atm.NewService("ATM-01", eng, atm.WithLogger(logger), atm.WithActivityLog(activityFile)),
		atm.NewService("ATM-02", eng, atm.WithLogger(logger), atm.WithActivityLog(activityFile)),
	}

	logger.Info("simulation starting",
		zap.Int("workers", workers),
		zap.Int("terminals", len(terminals)),
	)

	results := simulate(ctx, logger, terminals)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout+5*time.Second)
	defer cancel()

	if err := eng.Shutdown(shutdownCtx); err != nil {
		logger.Warn("engine did not drain cleanly", zap.Error(err))
	}

	printSummary(results)

	generator := report.NewGenerator(repo, monitor, report.WithLogger(logger))

	path, err := generator.WriteDaily(reportDir, txMemory.Lines())
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}

	fmt.Println(generator.Generate(txMemory.Lines()).Render())
	logger.Info("simulation finished", zap.String("report", path))

	return nil
}

// buildNotifier returns an AMQP-backed notifier when a broker URL is given,
// a logger-backed one otherwise.
func buildNotifier(logger *zap.Logger, amqpURL string) (notify.Notifier, func(), error) {
	if amqpURL == "" {
		return notify.NewZapNotifier(logger), func() {}, nil
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(fraudExchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("amqp exchange declare: %w", err)
	}

	notifier, err := notify.NewAMQPNotifier(channel, fraudExchange)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return notifier, func() { conn.Close() }, nil
}

type customer struct {
	name      string
	accountID int
	pin       string
}

func seedAccounts(logger *zap.Logger) *account.Repository {
	repo := account.NewRepository()

	seed := []struct {
		id      int
		name    string
		balance int64
		pin     string
		kind    account.Kind
	}{
		{1001, "Alice Johnson", 5000, "1234", account.KindSavings},
		{1002, "Bob Smith", 3000, "5678", account.KindSavings},
		{1003, "Charlie Brown", 7500, "9012", account.KindSavings},
		{2001, "Diana Prince", 2000, "3456", account.KindSalary},
		{2002, "Edward Norton", 4500, "7890", account.KindSalary},
	}

	for _, s := range seed {
		acct, err := account.New(s.id, s.name, decimal.NewFromInt(s.balance), s.pin, s.kind)
		if err != nil {
			logger.Fatal("seed account", zap.Int("account_id", s.id), zap.Error(err))
		}

		repo.Add(acct)

		logger.Info("account opened",
			zap.Int("account_id", s.id),
			zap.String("holder", s.name),
			zap.String("kind", string(s.kind)),
		)
	}

	return repo
}

type outcome struct {
	customer string
	result   transaction.Result
}

// simulate runs the scripted customer sessions concurrently across the
// terminals and waits for every submitted transaction to resolve.
func simulate(ctx context.Context, logger *zap.Logger, terminals []*atm.Service) []outcome {
	alice := customer{"Alice Johnson", 1001, "1234"}
	bob := customer{"Bob Smith", 1002, "5678"}
	charlie := customer{"Charlie Brown", 1003, "9012"}
	diana := customer{"Diana Prince", 2001, "3456"}
	edward := customer{"Edward Norton", 2002, "7890"}

	amt := decimal.NewFromInt

	sessions := [][]atm.Request{
		// Everyday traffic.
		{
			terminals[0].NewDepositRequest(alice.name, alice.accountID, amt(250), alice.pin),
			terminals[0].NewWithdrawRequest(alice.name, alice.accountID, amt(400), alice.pin),
			terminals[0].NewBalanceInquiryRequest(alice.name, alice.accountID, alice.pin),
		},
		{
			terminals[1].NewWithdrawRequest(bob.name, bob.accountID, amt(200), bob.pin),
			terminals[1].NewTransferRequest(bob.name, bob.accountID, diana.accountID, amt(350), bob.pin),
		},
		{
			terminals[0].NewTransferRequest(diana.name, diana.accountID, edward.accountID, amt(150), diana.pin),
			terminals[0].NewDepositRequest(diana.name, diana.accountID, amt(900), diana.pin),
		},
		// Opposed transfers between the same pair of accounts.
		{
			terminals[1].NewTransferRequest(edward.name, edward.accountID, diana.accountID, amt(75), edward.pin),
			terminals[1].NewTransferRequest(edward.name, edward.accountID, diana.accountID, amt(75), edward.pin),
		},
		// Rapid withdrawals opening with a high-value one, trips both
		// withdrawal heuristics.
		{
			terminals[1].NewWithdrawRequest(charlie.name, charlie.accountID, amt(5000), charlie.pin),
			terminals[1].NewWithdrawRequest(charlie.name, charlie.accountID, amt(500), charlie.pin),
			terminals[1].NewWithdrawRequest(charlie.name, charlie.accountID, amt(500), charlie.pin),
		},
		// Repeated wrong PIN.
		{
			terminals[0].NewBalanceInquiryRequest("Unknown", bob.accountID, "0000"),
			terminals[0].NewBalanceInquiryRequest("Unknown", bob.accountID, "0000"),
			terminals[0].NewBalanceInquiryRequest("Unknown", bob.accountID, "0000"),
		},
	}

	var (
		mu       sync.Mutex
		outcomes []outcome
		wg       sync.WaitGroup
	)

	for i, session := range sessions {
		wg.Add(1)

		terminal := terminals[i%len(terminals)]

		go func(requests []atm.Request) {
			defer wg.Done()

			for _, req := range requests {
				fut, err := terminal.Process(req)
				if err != nil {
					logger.Warn("request not accepted",
						zap.String("customer", req.Customer), zap.Error(err))

					return
				}

				res, err := fut.Wait(ctx)
				if err != nil {
					logger.Warn("interrupted while waiting for result",
						zap.String("customer", req.Customer), zap.Error(err))

					return
				}

				mu.Lock()
				outcomes = append(outcomes, outcome{customer: req.Customer, result: res})
				mu.Unlock()
			}
		}(session)
	}

	wg.Wait()

	return outcomes
}

func printSummary(outcomes []outcome) {
	fmt.Println()
	fmt.Println("Session results:")

	for _, o := range outcomes {
		status := "OK "
		if !o.result.Success {
			status = "ERR"
		}

		fmt.Printf("  [%s] %-14s %-16s %s\n", status, o.customer, o.result.Type, o.result.Message)
	}

	fmt.Println()
}
