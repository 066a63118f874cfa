package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()

	r, err := Open(context.Background(), ":memory:")
	require.NoError(t, err, "opening in-memory database")
	t.Cleanup(r.Close)

	return r
}

func TestMigrateFreshDatabase(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)

	v, err := r.userVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v, "fresh database must end at the newest version")

	for _, table := range []string{"items", "tags", "items_to_tags"} {
		var count int
		err := r.DB.Get(&count,
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %q must exist", table)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := context.Background()

	// a second run against a current schema is a no-op
	assert.NoError(t, r.Migrate(ctx))

	v, err := r.userVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion(), v)
}

func TestMigrateUnknownVersion(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := context.Background()

	// a database written by a newer build must be refused, not downgraded
	_, err := r.DB.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)

	assert.ErrorIs(t, r.Migrate(ctx), ErrUnknownMigration)
}

func TestMigrateIconColumns(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)

	var count int
	err := r.DB.Get(&count,
		"SELECT COUNT(*) FROM pragma_table_info('items') WHERE name IN ('icon_url', 'icon_url_version')")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "icon columns must be present after migration 2")
}
