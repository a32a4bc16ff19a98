package transaction

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorCode classifies why a transaction failed. Failed results always carry a
// code; successful results carry none.
type ErrorCode string

const (
	// CodeAccountNotFound indicates the account id is not present in the repository.
	CodeAccountNotFound ErrorCode = "ACCOUNT_NOT_FOUND"
	// CodeAccountFrozen indicates the operation was blocked by the freeze flag.
	CodeAccountFrozen ErrorCode = "ACCOUNT_FROZEN"
	// CodeInvalidPin indicates the PIN hash did not match.
	CodeInvalidPin ErrorCode = "INVALID_PIN"
	// CodeInvalidAmount indicates a non-positive amount or a policy violation
	// such as the savings minimum balance.
	CodeInvalidAmount ErrorCode = "INVALID_AMOUNT"
	// CodeInsufficientFunds indicates the transfer-time balance re-check failed.
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	// CodeMissingTarget indicates a transfer was submitted without a target account.
	CodeMissingTarget ErrorCode = "MISSING_TARGET"
	// CodePartialTransferFailure indicates the deposit leg of a transfer failed
	// after the withdrawal leg succeeded and was compensated.
	CodePartialTransferFailure ErrorCode = "PARTIAL_TRANSFER_FAILURE"
	// CodeUnknownType indicates an unrecognized transaction type.
	CodeUnknownType ErrorCode = "UNKNOWN_TRANSACTION_TYPE"
	// CodeEngineShutdown indicates the engine completed the transaction with a
	// failure because it was forced to shut down before processing it.
	CodeEngineShutdown ErrorCode = "ENGINE_SHUTDOWN"
	// CodeInternal indicates a recovered processing fault.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Result is the outcome of one submitted transaction. Exactly one Result is
// produced per submission, for both successes and failures.
type Result struct {
	Success      bool
	Code         ErrorCode
	Message      string
	BalanceAfter decimal.Decimal
	Type         Type
	AccountID    int
	CompletedAt  time.Time
}

// Succeeded builds a successful result carrying the post-operation balance.
func Succeeded(message string, balanceAfter decimal.Decimal, txType Type, accountID int) Result {
	return Result{
		Success:      true,
		Message:      message,
		BalanceAfter: balanceAfter,
		Type:         txType,
		AccountID:    accountID,
		CompletedAt:  time.Now(),
	}
}

// Failed builds a failed result with a domain error code.
func Failed(code ErrorCode, message string, balanceAfter decimal.Decimal, txType Type, accountID int) Result {
	return Result{
		Success:      false,
		Code:         code,
		Message:      message,
		BalanceAfter: balanceAfter,
		Type:         txType,
		AccountID:    accountID,
		CompletedAt:  time.Now(),
	}
}

// String renders the result for log lines.
func (r Result) String() string {
	if r.Success {
		return fmt.Sprintf("Result[Success=true, Type=%s, Account=%d, Balance=%s, Message=%s, Time=%s]",
			r.Type, r.AccountID, r.BalanceAfter.StringFixed(2), r.Message, r.CompletedAt.Format(TimeFormat))
	}

	return fmt.Sprintf("Result[Success=false, Code=%s, Type=%s, Account=%d, Balance=%s, Message=%s, Time=%s]",
		r.Code, r.Type, r.AccountID, r.BalanceAfter.StringFixed(2), r.Message, r.CompletedAt.Format(TimeFormat))
}
