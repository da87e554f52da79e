package db

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// Snapshotter records committed state to SQLite outside the hot path.
// Failures are logged and never fail the already-committed operation;
// the in-memory state remains authoritative. Satisfies the service
// layer's Persister interface.
type Snapshotter struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

// NewSnapshotter creates a Snapshotter over an open database.
func NewSnapshotter(database *sql.DB, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{
		db:      database,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// SaveItem records an item snapshot.
func (s *Snapshotter) SaveItem(item *domain.Item) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := SaveItem(ctx, s.db, item); err != nil {
		s.logger.Error("item snapshot failed",
			slog.Int64("item_id", item.ID), slog.String("error", err.Error()))
	}
}

// SaveAccount records an account balance.
func (s *Snapshotter) SaveAccount(address string, balance int64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := SaveAccount(ctx, s.db, address, balance); err != nil {
		s.logger.Error("account snapshot failed",
			slog.String("address", address), slog.String("error", err.Error()))
	}
}

// SaveSale records a sale.
func (s *Snapshotter) SaveSale(sale *domain.Sale) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := InsertSale(ctx, s.db, sale); err != nil {
		s.logger.Error("sale snapshot failed",
			slog.String("sale_id", sale.SaleID), slog.String("error", err.Error()))
	}
}

// SaveUser records a user profile.
func (s *Snapshotter) SaveUser(u *domain.User) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	u.Mu.Lock()
	cp := domain.User{
		Wallet:      u.Wallet,
		Username:    u.Username,
		AvatarURL:   u.AvatarURL,
		JoinedAt:    u.JoinedAt,
		ItemsOwned:  u.ItemsOwned,
		ItemsSold:   u.ItemsSold,
		TotalVolume: u.TotalVolume,
	}
	u.Mu.Unlock()

	if err := SaveUser(ctx, s.db, &cp); err != nil {
		s.logger.Error("user snapshot failed",
			slog.String("wallet", cp.Wallet), slog.String("error", err.Error()))
	}
}
