package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// SaveAccount upserts an account balance.
func SaveAccount(ctx context.Context, database *sql.DB, address string, balance int64) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO accounts (address, balance) VALUES (?, ?)
		 ON CONFLICT(address) DO UPDATE SET balance = excluded.balance`,
		address, balance,
	)
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// SaveItem upserts an item snapshot. The update only applies when the
// snapshot's version is newer than the stored row, so concurrent
// snapshot writers can never roll an item backwards.
func SaveItem(ctx context.Context, database *sql.DB, item *domain.Item) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO items (id, name, description, image_url, game, kind, rarity,
		                    price, seller, owner, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name, description = excluded.description,
		     image_url = excluded.image_url, game = excluded.game,
		     kind = excluded.kind, rarity = excluded.rarity,
		     price = excluded.price, seller = excluded.seller,
		     owner = excluded.owner, status = excluded.status,
		     version = excluded.version, updated_at = excluded.updated_at
		 WHERE excluded.version > items.version`,
		item.ID, item.Name, item.Description, item.ImageURL, item.Game,
		string(item.Kind), item.Rarity, item.Price, item.Seller,
		nullable(item.Owner), string(item.Status), item.Version,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving item: %w", err)
	}
	return nil
}

// InsertSale appends a sale record. Sale ids are unique, so replaying a
// snapshot is idempotent.
func InsertSale(ctx context.Context, database *sql.DB, sale *domain.Sale) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO sales (sale_id, item_id, buyer, seller, price, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(sale_id) DO NOTHING`,
		sale.SaleID, sale.ItemID, sale.Buyer, sale.Seller, sale.Price, sale.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting sale: %w", err)
	}
	return nil
}

// SaveUser upserts a user profile with its statistics.
func SaveUser(ctx context.Context, database *sql.DB, u *domain.User) error {
	_, err := database.ExecContext(ctx,
		`INSERT INTO users (wallet, username, avatar_url, joined_at, items_owned, items_sold, total_volume)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(wallet) DO UPDATE SET
		     username = excluded.username, avatar_url = excluded.avatar_url,
		     items_owned = excluded.items_owned, items_sold = excluded.items_sold,
		     total_volume = excluded.total_volume`,
		u.Wallet, u.Username, u.AvatarURL, u.JoinedAt, u.ItemsOwned, u.ItemsSold, u.TotalVolume,
	)
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

// LoadAccounts returns all persisted account balances.
func LoadAccounts(ctx context.Context, database *sql.DB) (map[string]int64, error) {
	rows, err := database.QueryContext(ctx, `SELECT address, balance FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}
	defer rows.Close()

	balances := make(map[string]int64)
	for rows.Next() {
		var address string
		var balance int64
		if err := rows.Scan(&address, &balance); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		balances[address] = balance
	}
	return balances, rows.Err()
}

// LoadItems returns all persisted items.
func LoadItems(ctx context.Context, database *sql.DB) ([]*domain.Item, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, name, description, image_url, game, kind, rarity,
		        price, seller, owner, status, version, created_at, updated_at
		 FROM items ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		var description, imageURL, owner sql.NullString
		var kind, status string
		if err := rows.Scan(&item.ID, &item.Name, &description, &imageURL,
			&item.Game, &kind, &item.Rarity, &item.Price, &item.Seller,
			&owner, &status, &item.Version, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.ImageURL = imageURL.String
		item.Owner = owner.String
		item.Kind = domain.ItemKind(kind)
		item.Status = domain.ItemStatus(status)
		items = append(items, item)
	}
	return items, rows.Err()
}

// LoadSales returns all persisted sales in chronological order.
func LoadSales(ctx context.Context, database *sql.DB) ([]*domain.Sale, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT sale_id, item_id, buyer, seller, price, executed_at
		 FROM sales ORDER BY executed_at, sale_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		sale := &domain.Sale{}
		if err := rows.Scan(&sale.SaleID, &sale.ItemID, &sale.Buyer,
			&sale.Seller, &sale.Price, &sale.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// LoadUsers returns all persisted user profiles.
func LoadUsers(ctx context.Context, database *sql.DB) ([]*domain.User, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT wallet, username, avatar_url, joined_at, items_owned, items_sold, total_volume
		 FROM users`,
	)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u := &domain.User{}
		var avatar sql.NullString
		if err := rows.Scan(&u.Wallet, &u.Username, &avatar, &u.JoinedAt,
			&u.ItemsOwned, &u.ItemsSold, &u.TotalVolume,
		); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.AvatarURL = avatar.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// nullable converts an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
