package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TimeFormat is the timestamp layout used in transaction and alert log lines.
const TimeFormat = "2006-01-02 15:04:05"

// Type identifies the requested operation.
type Type string

const (
	// TypeWithdraw debits a single account.
	TypeWithdraw Type = "WITHDRAW"
	// TypeDeposit credits a single account.
	TypeDeposit Type = "DEPOSIT"
	// TypeTransfer moves funds between two accounts.
	TypeTransfer Type = "TRANSFER"
	// TypeBalanceInquiry reads a balance without mutating it.
	TypeBalanceInquiry Type = "BALANCE_INQUIRY"
)

// Transaction is a single requested operation against one or two accounts.
// It is created once per request and never mutated afterwards.
type Transaction struct {
	ID              uuid.UUID
	Type            Type
	AccountID       int
	TargetAccountID *int // set only for transfers
	Amount          decimal.Decimal
	PIN             string
	CreatedAt       time.Time
}

// NewWithdraw builds a withdrawal request against accountID.
func NewWithdraw(accountID int, amount decimal.Decimal, pin string) Transaction {
	return newTransaction(TypeWithdraw, accountID, nil, amount, pin)
}

// NewDeposit builds a deposit request against accountID.
func NewDeposit(accountID int, amount decimal.Decimal, pin string) Transaction {
	return newTransaction(TypeDeposit, accountID, nil, amount, pin)
}

// NewTransfer builds a transfer request moving amount from sourceID to targetID.
func NewTransfer(sourceID, targetID int, amount decimal.Decimal, pin string) Transaction {
	return newTransaction(TypeTransfer, sourceID, &targetID, amount, pin)
}

// NewBalanceInquiry builds a read-only balance request against accountID.
func NewBalanceInquiry(accountID int, pin string) Transaction {
	return newTransaction(TypeBalanceInquiry, accountID, nil, decimal.Zero, pin)
}

func newTransaction(txType Type, accountID int, targetID *int, amount decimal.Decimal, pin string) Transaction {
	return Transaction{
		ID:              uuid.New(),
		Type:            txType,
		AccountID:       accountID,
		TargetAccountID: targetID,
		Amount:          amount,
		PIN:             pin,
		CreatedAt:       time.Now(),
	}
}

// String renders the transaction for log lines. The PIN is never included.
func (t Transaction) String() string {
	if t.Type == TypeTransfer && t.TargetAccountID != nil {
		return fmt.Sprintf("Transaction[ID=%s, Type=%s, From=%d, To=%d, Amount=%s, Time=%s]",
			t.ID, t.Type, t.AccountID, *t.TargetAccountID, t.Amount.StringFixed(2), t.CreatedAt.Format(TimeFormat))
	}

	return fmt.Sprintf("Transaction[ID=%s, Type=%s, Account=%d, Amount=%s, Time=%s]",
		t.ID, t.Type, t.AccountID, t.Amount.StringFixed(2), t.CreatedAt.Format(TimeFormat))
}
