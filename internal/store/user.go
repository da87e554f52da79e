package store

import (
	"sync"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// UserStore is a thread-safe in-memory store for user profiles,
// with a primary index by wallet and a secondary index by username.
type UserStore struct {
	mu         sync.RWMutex
	users      map[string]*domain.User // wallet → user
	byUsername map[string]*domain.User // username → user
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]*domain.User),
	}
}

// Upsert inserts a profile or updates an existing one's username and
// avatar. Returns domain.ErrConflict if the username is already taken
// by another wallet.
func (s *UserStore) Upsert(u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taken, ok := s.byUsername[u.Username]; ok && taken.Wallet != u.Wallet {
		return nil, domain.ErrConflict
	}

	existing, ok := s.users[u.Wallet]
	if !ok {
		s.users[u.Wallet] = u
		s.byUsername[u.Username] = u
		return u, nil
	}

	if existing.Username != u.Username {
		delete(s.byUsername, existing.Username)
		s.byUsername[u.Username] = existing
	}
	existing.Username = u.Username
	if u.AvatarURL != "" {
		existing.AvatarURL = u.AvatarURL
	}
	return existing, nil
}

// Get retrieves a user by wallet. It returns
// domain.ErrUserNotFound if no profile exists for the wallet.
func (s *UserStore) Get(wallet string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[wallet]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// RecordPurchase updates the buyer's and seller's sale statistics.
// Wallets without a profile are skipped; stats only accrue to
// registered users.
func (s *UserStore) RecordPurchase(buyer, seller string, price int64) {
	s.mu.RLock()
	b := s.users[buyer]
	sl := s.users[seller]
	s.mu.RUnlock()

	if b != nil {
		b.Mu.Lock()
		b.ItemsOwned++
		b.Mu.Unlock()
	}
	if sl != nil {
		sl.Mu.Lock()
		if sl.ItemsOwned > 0 {
			sl.ItemsOwned--
		}
		sl.ItemsSold++
		sl.TotalVolume += price
		sl.Mu.Unlock()
	}
}
