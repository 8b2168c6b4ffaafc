package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/chiahsuan/eatwhat-linebot-go/internal/errors"
)

// slowQueryThreshold triggers a warning log for store round-trips above it.
const slowQueryThreshold = 100 * time.Millisecond

// SaveShop inserts a new shop record.
// Returns domerrors.ErrDuplicateShop when a shop with the same name already
// exists in the conversation. Uniqueness is enforced by the UNIQUE(chat_id,
// name) index, so concurrent adds cannot create two records.
func (db *DB) SaveShop(ctx context.Context, shop *Shop) error {
	// The store owns the non-empty invariants; callers validate wording,
	// not data integrity.
	if shop.ChatID == "" || shop.Name == "" {
		return domerrors.ErrInvalidInput
	}

	closedDays, err := json.Marshal(shop.ClosedDays)
	if err != nil {
		return fmt.Errorf("marshal closed days: %w", err)
	}

	query := `
		INSERT INTO shops (chat_id, name, closed_days, rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, name) DO NOTHING
	`
	start := time.Now()
	now := time.Now().Unix()
	res, err := db.conn.ExecContext(ctx, query, shop.ChatID, shop.Name, string(closedDays), shop.Rate, now, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save shop",
			"chat_id", shop.ChatID,
			"name", shop.Name,
			"error", err)
		return fmt.Errorf("save shop: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save shop rows affected: %w", err)
	}
	if affected == 0 {
		return domerrors.ErrDuplicateShop
	}

	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveShop",
			"duration_ms", duration.Milliseconds(),
			"chat_id", shop.ChatID)
	}
	return nil
}

// GetShop retrieves a shop by name within a conversation.
// Returns domerrors.ErrNotFound when no record matches.
func (db *DB) GetShop(ctx context.Context, chatID, name string) (*Shop, error) {
	query := `
		SELECT id, chat_id, name, closed_days, rate, created_at, updated_at
		FROM shops WHERE chat_id = ? AND name = ?
	`
	row := db.conn.QueryRowContext(ctx, query, chatID, name)
	shop, err := scanShop(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query shop",
			"chat_id", chatID,
			"name", name,
			"error", err)
		return nil, fmt.Errorf("query shop: %w", err)
	}
	return shop, nil
}

// ListShops returns all shop records for a conversation in insertion order.
func (db *DB) ListShops(ctx context.Context, chatID string) ([]Shop, error) {
	query := `
		SELECT id, chat_id, name, closed_days, rate, created_at, updated_at
		FROM shops WHERE chat_id = ? ORDER BY id
	`
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, chatID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list shops",
			"chat_id", chatID,
			"error", err)
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var shops []Shop
	for rows.Next() {
		shop, err := scanShop(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		shops = append(shops, *shop)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database query",
			"operation", "ListShops",
			"duration_ms", duration.Milliseconds(),
			"chat_id", chatID,
			"result_count", len(shops))
	}
	return shops, nil
}

// UpdateShop replaces the closed days and rate of a shop.
// Returns the updated record, or domerrors.ErrNotFound when no shop with
// that name exists in the conversation.
func (db *DB) UpdateShop(ctx context.Context, chatID, name string, closedDays []int, rate float64) (*Shop, error) {
	encoded, err := json.Marshal(closedDays)
	if err != nil {
		return nil, fmt.Errorf("marshal closed days: %w", err)
	}

	query := `
		UPDATE shops SET closed_days = ?, rate = ?, updated_at = ?
		WHERE chat_id = ? AND name = ?
	`
	res, err := db.conn.ExecContext(ctx, query, string(encoded), rate, time.Now().Unix(), chatID, name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update shop",
			"chat_id", chatID,
			"name", name,
			"error", err)
		return nil, fmt.Errorf("update shop: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update shop rows affected: %w", err)
	}
	if affected == 0 {
		return nil, domerrors.ErrNotFound
	}

	return db.GetShop(ctx, chatID, name)
}

// DeleteShop removes one shop by name within a conversation.
// Returns true when a record was actually deleted, false when the name did
// not exist.
func (db *DB) DeleteShop(ctx context.Context, chatID, name string) (bool, error) {
	query := `DELETE FROM shops WHERE chat_id = ? AND name = ?`
	res, err := db.conn.ExecContext(ctx, query, chatID, name)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete shop",
			"chat_id", chatID,
			"name", name,
			"error", err)
		return false, fmt.Errorf("delete shop: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete shop rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteAllShops removes every shop record of a conversation.
// Used by the clear command and when the bot is unfollowed or removed from
// a group. Returns the number of deleted records.
func (db *DB) DeleteAllShops(ctx context.Context, chatID string) (int64, error) {
	query := `DELETE FROM shops WHERE chat_id = ?`
	res, err := db.conn.ExecContext(ctx, query, chatID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete all shops",
			"chat_id", chatID,
			"error", err)
		return 0, fmt.Errorf("delete all shops: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all shops rows affected: %w", err)
	}
	return affected, nil
}

// CountShops returns the total number of shop records across all conversations.
func (db *DB) CountShops(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM shops`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count shops: %w", err)
	}
	return count, nil
}

// scanShop reads one shops row through the given scan function and decodes
// the closed-days column.
func scanShop(scan func(dest ...any) error) (*Shop, error) {
	var shop Shop
	var closedDays string
	if err := scan(&shop.ID, &shop.ChatID, &shop.Name, &closedDays, &shop.Rate, &shop.CreatedAt, &shop.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(closedDays), &shop.ClosedDays); err != nil {
		return nil, fmt.Errorf("decode closed days: %w", err)
	}
	return &shop, nil
}
