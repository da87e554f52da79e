// Package ledger tracks wallet balances and moves value between them.
//
// All mutations on a single account are serialized through the account's
// own mutex; a two-party transfer locks both accounts in address order so
// that two concurrent transfers touching the same accounts can never both
// observe a sufficient balance and both succeed.
package ledger

import (
	"sync"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// TransferResult holds the post-transfer balances of both parties.
type TransferResult struct {
	FromBalance int64
	ToBalance   int64
}

// Ledger is a thread-safe in-memory balance ledger keyed by wallet address.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[string]*domain.Account),
	}
}

// account returns the account for the given address, creating it with a
// zero balance if it doesn't already exist.
func (l *Ledger) account(address string) *domain.Account {
	l.mu.RLock()
	acc, ok := l.accounts[address]
	l.mu.RUnlock()
	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock.
	if acc, ok = l.accounts[address]; ok {
		return acc
	}
	acc = &domain.Account{
		Address:   address,
		Balance:   0,
		CreatedAt: time.Now(),
	}
	l.accounts[address] = acc
	return acc
}

// Restore installs a balance for an address, replacing any existing
// account. Used to seed state from a snapshot at startup; not safe to
// call concurrently with other operations.
func (l *Ledger) Restore(address string, balance int64, createdAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[address] = &domain.Account{
		Address:   address,
		Balance:   balance,
		CreatedAt: createdAt,
	}
}

// Balance returns the current balance for an address. Unknown addresses
// report a zero balance without creating an account.
func (l *Ledger) Balance(address string) int64 {
	l.mu.RLock()
	acc, ok := l.accounts[address]
	l.mu.RUnlock()
	if !ok {
		return 0
	}

	acc.Mu.Lock()
	defer acc.Mu.Unlock()
	return acc.Balance
}

// Credit increases an account's balance by amount and returns the new
// balance. Amount must be positive.
func (l *Ledger) Credit(address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, &domain.ValidationError{Message: "amount must be > 0"}
	}

	acc := l.account(address)
	acc.Mu.Lock()
	defer acc.Mu.Unlock()
	acc.Balance += amount
	return acc.Balance, nil
}

// Debit decreases an account's balance by amount and returns the new
// balance. Amount must be positive. Returns domain.ErrInsufficientFunds
// if the balance is smaller than amount.
func (l *Ledger) Debit(address string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, &domain.ValidationError{Message: "amount must be > 0"}
	}

	acc := l.account(address)
	acc.Mu.Lock()
	defer acc.Mu.Unlock()
	if acc.Balance < amount {
		return 0, domain.ErrInsufficientFunds
	}
	acc.Balance -= amount
	return acc.Balance, nil
}

// Transfer atomically debits amount from one address and credits it to
// another, returning both post-transfer balances. The two accounts are
// locked in address order, so conflicting transfers serialize and no
// reader can observe the debit without the credit. If the debit would
// overdraw, nothing moves.
func (l *Ledger) Transfer(from, to string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, &domain.ValidationError{Message: "amount must be > 0"}
	}
	if from == to {
		return TransferResult{}, &domain.ValidationError{Message: "from and to must differ"}
	}

	src := l.account(from)
	dst := l.account(to)

	// Deterministic lock order by address prevents deadlock between
	// concurrent opposing transfers.
	first, second := src, dst
	if dst.Address < src.Address {
		first, second = dst, src
	}
	first.Mu.Lock()
	defer first.Mu.Unlock()
	second.Mu.Lock()
	defer second.Mu.Unlock()

	if src.Balance < amount {
		return TransferResult{}, domain.ErrInsufficientFunds
	}
	src.Balance -= amount
	dst.Balance += amount

	return TransferResult{
		FromBalance: src.Balance,
		ToBalance:   dst.Balance,
	}, nil
}

// Snapshot returns a copy of all account balances, keyed by address.
func (l *Ledger) Snapshot() map[string]int64 {
	l.mu.RLock()
	accounts := make([]*domain.Account, 0, len(l.accounts))
	for _, acc := range l.accounts {
		accounts = append(accounts, acc)
	}
	l.mu.RUnlock()

	balances := make(map[string]int64, len(accounts))
	for _, acc := range accounts {
		acc.Mu.Lock()
		balances[acc.Address] = acc.Balance
		acc.Mu.Unlock()
	}
	return balances
}
