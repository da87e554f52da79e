package domain

import (
	"sync"
	"time"
)

// Account holds the ledger balance for a single wallet address.
// Accounts are created on first reference and never deleted.
type Account struct {
	Address   string
	Balance   int64 // lamports
	CreatedAt time.Time
	Mu        sync.Mutex // per-account lock for balance mutations
}
