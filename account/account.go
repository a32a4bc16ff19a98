package account

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Kind selects the withdrawal policy for an account.
type Kind string

const (
	// KindSavings enforces a minimum balance floor on withdrawals.
	KindSavings Kind = "SAVINGS"
	// KindSalary allows the balance to reach exactly zero.
	KindSalary Kind = "SALARY"
)

// MinimumSavingsBalance is the floor a savings account balance may never cross
// through a withdrawal.
var MinimumSavingsBalance = decimal.NewFromInt(100)

// Account is one ledger entry. All mutable fields live behind mu; each public
// operation is individually atomic with respect to concurrent callers.
type Account struct {
	id   int
	name string
	kind Kind

	mu                sync.Mutex
	balance           decimal.Decimal
	pinHash           []byte
	failedPinAttempts int
	transactionCount  int
	frozen            bool
}

// New creates an account with an initial balance and a hashed PIN.
func New(id int, name string, initialBalance decimal.Decimal, pin string, kind Kind) (*Account, error) {
	if kind != KindSavings && kind != KindSalary {
		return nil, fmt.Errorf("account %d: unknown kind %q", id, kind)
	}

	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("account %d: negative initial balance %s", id, initialBalance)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("account %d: hash pin: %w", id, err)
	}

	return &Account{
		id:      id,
		name:    name,
		kind:    kind,
		balance: initialBalance,
		pinHash: hash,
	}, nil
}

// ID returns the immutable account id.
func (a *Account) ID() int { return a.id }

// Name returns the immutable display name.
func (a *Account) Name() string { return a.name }

// Kind returns the account kind.
func (a *Account) Kind() Kind { return a.kind }

// Deposit credits amount. It fails for non-positive amounts and otherwise
// always succeeds, incrementing the transaction count.
func (a *Account) Deposit(amount decimal.Decimal) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !amount.IsPositive() {
		return false
	}

	a.balance = a.balance.Add(amount)
	a.transactionCount++

	return true
}

// Withdraw debits amount. It fails for non-positive amounts, for amounts
// exceeding the balance, and for savings accounts whenever the withdrawal
// would leave the balance below MinimumSavingsBalance.
func (a *Account) Withdraw(amount decimal.Decimal) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !amount.IsPositive() {
		return false
	}

	if a.kind == KindSavings && a.balance.Sub(amount).LessThan(MinimumSavingsBalance) {
		return false
	}

	if a.balance.LessThan(amount) {
		return false
	}

	a.balance = a.balance.Sub(amount)
	a.transactionCount++

	return true
}

// Balance returns the current balance. It observes only fully applied
// mutations because it takes the same mutex as Deposit and Withdraw.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.balance
}

// ValidatePin compares the input against the stored hash. A mismatch
// increments the failed-attempt counter; a match resets it. The side effect
// applies on every call, including read-only balance inquiries.
func (a *Account) ValidatePin(pin string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.validatePinLocked(pin)
}

// validatePinLocked requires a.mu to be held.
func (a *Account) validatePinLocked(pin string) bool {
	if bcrypt.CompareHashAndPassword(a.pinHash, []byte(pin)) != nil {
		a.failedPinAttempts++
		return false
	}

	a.failedPinAttempts = 0

	return true
}

// ChangePin replaces the stored hash when oldPin validates. A failed
// validation counts as a failed attempt, exactly as ValidatePin does.
func (a *Account) ChangePin(oldPin, newPin string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.validatePinLocked(oldPin) {
		return false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPin), bcrypt.DefaultCost)
	if err != nil {
		return false
	}

	a.pinHash = hash

	return true
}

// AdminSetPin unconditionally replaces the hash and resets the failed-attempt
// counter. It is the administrative escape hatch and bypasses validation.
func (a *Account) AdminSetPin(newPin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("account %d: hash pin: %w", a.id, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.pinHash = hash
	a.failedPinAttempts = 0

	return nil
}

// FailedPinAttempts returns the consecutive failed PIN validation count.
func (a *Account) FailedPinAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.failedPinAttempts
}

// TransactionCount returns the number of successful monetary operations.
func (a *Account) TransactionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.transactionCount
}

// SetFrozen flips the administrative circuit breaker.
func (a *Account) SetFrozen(frozen bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frozen = frozen
}

// IsFrozen reports whether the account is frozen.
func (a *Account) IsFrozen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.frozen
}

// String renders the account for console output and reports.
func (a *Account) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return fmt.Sprintf("Account[ID=%d, Name=%s, Kind=%s, Balance=%s, Transactions=%d]",
		a.id, a.name, a.kind, a.balance.StringFixed(2), a.transactionCount)
}
