package account

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Summary is a read-only copy of an account's reportable state.
type Summary struct {
	ID               int
	Name             string
	Kind             Kind
	Balance          decimal.Decimal
	TransactionCount int
	Frozen           bool
}

// Repository is a concurrent lookup table owning all account instances.
//
// Lookups and inserts are safe without external locking. The repository hands
// out shared references; serializing mutations on those accounts is the job of
// the accounts themselves and of the lock coordinator.
type Repository struct {
	mu       sync.RWMutex
	accounts map[int]*Account
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{accounts: make(map[int]*Account)}
}

// Add registers an account under its id, replacing any previous entry.
func (r *Repository) Add(a *Account) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[a.ID()] = a
}

// Get returns the shared account reference for id.
func (r *Repository) Get(id int) (*Account, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]

	return a, ok
}

// Exists reports whether id is registered.
func (r *Repository) Exists(id int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[id]

	return ok
}

// SetFrozen freezes or unfreezes the account with id. Absent ids are a no-op.
func (r *Repository) SetFrozen(id int, frozen bool) {
	r.mu.RLock()
	a, ok := r.accounts[id]
	r.mu.RUnlock()

	if ok {
		a.SetFrozen(frozen)
	}
}

// Count returns the number of registered accounts.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.accounts)
}

// Snapshot returns read-only copies of every account, ordered by id, for
// reporting. The copies do not alias live account state.
func (r *Repository) Snapshot() []Summary {
	r.mu.RLock()
	accounts := make([]*Account, 0, len(r.accounts))

	for _, a := range r.accounts {
		accounts = append(accounts, a)
	}
	r.mu.RUnlock()

	summaries := make([]Summary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, Summary{
			ID:               a.ID(),
			Name:             a.Name(),
			Kind:             a.Kind(),
			Balance:          a.Balance(),
			TransactionCount: a.TransactionCount(),
			Frozen:           a.IsFrozen(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	return summaries
}
