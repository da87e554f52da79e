package domain

import (
	"sync"
	"time"
)

// User is a marketplace profile bound to a wallet address.
type User struct {
	Wallet      string
	Username    string
	AvatarURL   string
	JoinedAt    time.Time
	ItemsOwned  int64
	ItemsSold   int64
	TotalVolume int64      // lamports received across all sales
	Mu          sync.Mutex // per-user lock for stat mutations
}
