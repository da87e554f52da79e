// Package db persists marketplace state to SQLite. The in-memory ledger
// and registry stay authoritative; this package loads their state at
// startup and records snapshots after committed mutations. Item writes
// carry the item's version and are applied with an optimistic guard, so
// a stale snapshot can never overwrite a newer one.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    address    TEXT PRIMARY KEY,
    balance    INTEGER NOT NULL CHECK (balance >= 0),
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    image_url   TEXT,
    game        TEXT NOT NULL,
    kind        TEXT NOT NULL,
    rarity      TEXT NOT NULL DEFAULT 'Common',
    price       INTEGER NOT NULL CHECK (price >= 0),
    seller      TEXT NOT NULL,
    owner       TEXT,
    status      TEXT NOT NULL CHECK (status IN ('for_sale', 'listed_for_sale', 'owned', 'sold')),
    version     INTEGER NOT NULL,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_game ON items(game);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);

CREATE TABLE IF NOT EXISTS sales (
    sale_id     TEXT PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    buyer       TEXT NOT NULL,
    seller      TEXT NOT NULL,
    price       INTEGER NOT NULL CHECK (price > 0),
    executed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_item ON sales(item_id);

CREATE TABLE IF NOT EXISTS users (
    wallet       TEXT PRIMARY KEY,
    username     TEXT NOT NULL UNIQUE,
    avatar_url   TEXT,
    joined_at    DATETIME NOT NULL,
    items_owned  INTEGER NOT NULL DEFAULT 0,
    items_sold   INTEGER NOT NULL DEFAULT 0,
    total_volume INTEGER NOT NULL DEFAULT 0
);
`

// Open opens a SQLite database, configures pragmas, and ensures the
// schema exists.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set pragmas for performance and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := database.Exec(p); err != nil {
			database.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return database, nil
}
