package transaction

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetFields(t *testing.T) {
	amount := decimal.NewFromInt(250)

	withdraw := NewWithdraw(1001, amount, "1234")
	assert.Equal(t, TypeWithdraw, withdraw.Type)
	assert.Equal(t, 1001, withdraw.AccountID)
	assert.Nil(t, withdraw.TargetAccountID)
	assert.True(t, amount.Equal(withdraw.Amount))
	assert.NotZero(t, withdraw.ID)
	assert.False(t, withdraw.CreatedAt.IsZero())

	transfer := NewTransfer(1002, 1001, amount, "5678")
	require.NotNil(t, transfer.TargetAccountID)
	assert.Equal(t, 1001, *transfer.TargetAccountID)
	assert.Equal(t, 1002, transfer.AccountID)

	inquiry := NewBalanceInquiry(2001, "3456")
	assert.Equal(t, TypeBalanceInquiry, inquiry.Type)
	assert.True(t, inquiry.Amount.IsZero())
}

func TestStringNeverLeaksPIN(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
	}{
		{"withdraw", NewWithdraw(1001, decimal.NewFromInt(500), "secret-pin")},
		{"transfer", NewTransfer(1001, 1002, decimal.NewFromInt(500), "secret-pin")},
		{"inquiry", NewBalanceInquiry(1001, "secret-pin")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered := tt.tx.String()
			assert.NotContains(t, rendered, "secret-pin")
			assert.Contains(t, rendered, string(tt.tx.Type))
		})
	}
}

func TestTransferStringNamesBothAccounts(t *testing.T) {
	tx := NewTransfer(1002, 1001, decimal.NewFromFloat(500.50), "5678")

	rendered := tx.String()
	assert.Contains(t, rendered, "From=1002")
	assert.Contains(t, rendered, "To=1001")
	assert.Contains(t, rendered, "Amount=500.50")
}

func TestResultString(t *testing.T) {
	ok := Succeeded("withdrawal successful", decimal.NewFromInt(4500), TypeWithdraw, 1001)
	assert.True(t, strings.Contains(ok.String(), "Success=true"))
	assert.NotContains(t, ok.String(), "Code=")

	failed := Failed(CodeInsufficientFunds, "insufficient funds", decimal.NewFromInt(10), TypeTransfer, 1002)
	assert.Contains(t, failed.String(), "Code=INSUFFICIENT_FUNDS")
	assert.Contains(t, failed.String(), "Success=false")
	assert.False(t, failed.CompletedAt.IsZero())
}
