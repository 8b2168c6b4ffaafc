package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSchemaIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// New already ran InitSchema once; running it again must be harmless.
	require.NoError(t, InitSchema(ctx, db.Conn()))

	err := db.SaveShop(ctx, &Shop{ChatID: "C1", Name: "麵店", Rate: 1})
	require.NoError(t, err)

	require.NoError(t, InitSchema(ctx, db.Conn()))

	// Existing data survives a re-init.
	shop, err := db.GetShop(ctx, "C1", "麵店")
	require.NoError(t, err)
	assert.Equal(t, "麵店", shop.Name)
}

func TestSchemaUniqueIndex(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var count int
	err := db.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = 'shops'`,
	).Scan(&count)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, count, 2, "expected the unique index and the chat_id index")
}

func TestSchemaColumnDefaults(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Insert without closed_days and rate; defaults apply.
	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO shops (chat_id, name, created_at, updated_at) VALUES ('C1', '麵店', 0, 0)`,
	)
	require.NoError(t, err)

	shop, err := db.GetShop(ctx, "C1", "麵店")
	require.NoError(t, err)
	assert.Empty(t, shop.ClosedDays)
	assert.Equal(t, float64(1), shop.Rate)
}
