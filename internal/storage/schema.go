package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's New function.
func InitSchema(ctx context.Context, db *sql.DB) error {
	return createShopsTable(ctx, db)
}

// createShopsTable creates the shops table.
// The UNIQUE(chat_id, name) index is what enforces the one-record-per-
// (name, conversation) invariant; concurrent adds for the same name race
// down to a single winner inside SQLite.
func createShopsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS shops (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chat_id TEXT NOT NULL,
		name TEXT NOT NULL,
		closed_days TEXT NOT NULL DEFAULT '[]',
		rate REAL NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(chat_id, name)
	);
	CREATE INDEX IF NOT EXISTS idx_shops_chat_id ON shops(chat_id);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create shops table: %w", err)
	}

	return nil
}
