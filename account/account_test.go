package account

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSavings creates a savings account or fails the test.
func newSavings(t *testing.T, id int, balance int64) *Account {
	t.Helper()

	a, err := New(id, "Test Saver", decimal.NewFromInt(balance), "1234", KindSavings)
	require.NoError(t, err)

	return a
}

// newSalary creates a salary account or fails the test.
func newSalary(t *testing.T, id int, balance int64) *Account {
	t.Helper()

	a, err := New(id, "Test Earner", decimal.NewFromInt(balance), "1234", KindSalary)
	require.NoError(t, err)

	return a
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(1, "x", decimal.NewFromInt(-1), "1234", KindSavings)
	assert.Error(t, err)

	_, err = New(1, "x", decimal.NewFromInt(10), "1234", Kind("CHECKING"))
	assert.Error(t, err)
}

func TestDeposit(t *testing.T) {
	a := newSalary(t, 2001, 100)

	assert.False(t, a.Deposit(decimal.Zero))
	assert.False(t, a.Deposit(decimal.NewFromInt(-5)))
	assert.Equal(t, 0, a.TransactionCount())

	assert.True(t, a.Deposit(decimal.NewFromFloat(49.50)))
	assert.True(t, a.Balance().Equal(decimal.NewFromFloat(149.50)))
	assert.Equal(t, 1, a.TransactionCount())
}

func TestWithdrawSavingsMinimumBalance(t *testing.T) {
	a := newSavings(t, 1001, 5000)

	// 5000 - 4901 = 99 would cross the floor.
	assert.False(t, a.Withdraw(decimal.NewFromFloat(4901.0)))
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(5000)))

	// 5000 - 4900 = 100 sits exactly on the floor.
	assert.True(t, a.Withdraw(decimal.NewFromFloat(4900.0)))
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(100)))

	// Any further withdrawal would cross it.
	assert.False(t, a.Withdraw(decimal.NewFromFloat(0.01)))
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(100)))
}

func TestWithdrawSalaryMayReachZero(t *testing.T) {
	a := newSalary(t, 2001, 300)

	assert.True(t, a.Withdraw(decimal.NewFromInt(300)))
	assert.True(t, a.Balance().IsZero())

	assert.False(t, a.Withdraw(decimal.NewFromFloat(0.01)))
	assert.False(t, a.Withdraw(decimal.Zero))
}

func TestWithdrawOverdraftPrevention(t *testing.T) {
	a := newSalary(t, 2001, 100)

	assert.False(t, a.Withdraw(decimal.NewFromInt(101)))
	assert.True(t, a.Balance().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 0, a.TransactionCount())
}

func TestValidatePinSideEffects(t *testing.T) {
	a := newSavings(t, 1001, 1000)

	assert.False(t, a.ValidatePin("9999"))
	assert.False(t, a.ValidatePin("0000"))
	assert.Equal(t, 2, a.FailedPinAttempts())

	assert.True(t, a.ValidatePin("1234"))
	assert.Equal(t, 0, a.FailedPinAttempts())
}

func TestChangePin(t *testing.T) {
	a := newSavings(t, 1001, 1000)

	assert.False(t, a.ChangePin("9999", "4321"))
	assert.Equal(t, 1, a.FailedPinAttempts())
	assert.True(t, a.ValidatePin("1234"))

	assert.True(t, a.ChangePin("1234", "4321"))
	assert.True(t, a.ValidatePin("4321"))
	assert.False(t, a.ValidatePin("1234"))
}

func TestAdminSetPinBypassesValidation(t *testing.T) {
	a := newSavings(t, 1001, 1000)

	a.ValidatePin("9999")
	a.ValidatePin("9999")
	require.Equal(t, 2, a.FailedPinAttempts())

	require.NoError(t, a.AdminSetPin("7777"))
	assert.Equal(t, 0, a.FailedPinAttempts())
	assert.True(t, a.ValidatePin("7777"))
}

func TestFreezeFlag(t *testing.T) {
	a := newSalary(t, 2001, 100)

	assert.False(t, a.IsFrozen())
	a.SetFrozen(true)
	assert.True(t, a.IsFrozen())
	a.SetFrozen(false)
	assert.False(t, a.IsFrozen())
}

func TestConcurrentDepositsAreSerialized(t *testing.T) {
	a := newSalary(t, 2001, 0)

	const workers = 50

	amount := decimal.NewFromInt(7)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			a.Deposit(amount)
		}()
	}

	wg.Wait()

	want := amount.Mul(decimal.NewFromInt(workers))
	assert.True(t, a.Balance().Equal(want), "expected %s, got %s", want, a.Balance())
	assert.Equal(t, workers, a.TransactionCount())
}
