package service

import (
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/registry"
	"github.com/efreitasn/nftmarket/internal/store"
)

// RegisterUserRequest represents the input for profile registration.
type RegisterUserRequest struct {
	Wallet    string
	Username  string
	AvatarURL string
}

// ProfileResponse represents a user profile with its trade statistics.
type ProfileResponse struct {
	Wallet      string
	Username    string
	AvatarURL   string
	JoinedAt    time.Time
	ItemsOwned  int64
	ItemsSold   int64
	TotalVolume int64 // lamports
}

// UserService handles profile registration and lookups.
type UserService struct {
	store    *store.UserStore
	registry ItemRegistry
	persist  Persister
}

// NewUserService creates a new UserService. persist may be nil.
func NewUserService(users *store.UserStore, reg ItemRegistry, persist Persister) *UserService {
	return &UserService{
		store:    users,
		registry: reg,
		persist:  persist,
	}
}

// Register creates or updates the profile bound to a wallet.
func (s *UserService) Register(req RegisterUserRequest) (*ProfileResponse, error) {
	if !walletRegex.MatchString(req.Wallet) {
		return nil, &domain.ValidationError{Message: "wallet must be a valid wallet address"}
	}
	if !usernameRegex.MatchString(req.Username) {
		return nil, &domain.ValidationError{Message: "username must match ^[a-zA-Z0-9_-]{3,32}$"}
	}

	u, err := s.store.Upsert(&domain.User{
		Wallet:    req.Wallet,
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
		JoinedAt:  time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if s.persist != nil {
		s.persist.SaveUser(u)
	}
	return profileOf(u), nil
}

// Profile returns the profile for a wallet.
func (s *UserService) Profile(wallet string) (*ProfileResponse, error) {
	u, err := s.store.Get(wallet)
	if err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

// Items returns the items a wallet currently holds.
func (s *UserService) Items(wallet string) []*domain.Item {
	return s.registry.Items(registry.Filter{Holder: wallet, Status: domain.ItemStatusOwned})
}

// Listings returns the wallet's active listings.
func (s *UserService) Listings(wallet string) []*domain.Item {
	return s.registry.Items(registry.Filter{Holder: wallet, Status: domain.ItemStatusListed})
}

func profileOf(u *domain.User) *ProfileResponse {
	u.Mu.Lock()
	defer u.Mu.Unlock()
	return &ProfileResponse{
		Wallet:      u.Wallet,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		JoinedAt:    u.JoinedAt,
		ItemsOwned:  u.ItemsOwned,
		ItemsSold:   u.ItemsSold,
		TotalVolume: u.TotalVolume,
	}
}
