package db

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrDBNotFound)
}

func TestOpenUnusablePath(t *testing.T) {
	t.Parallel()

	// a directory is not a database file; the connect-time ping must fail
	// and the handle must not leak back to the caller
	r, err := Open(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Nil(t, r)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	r := setupTestDB(t)
	ctx := context.Background()

	wantErr := assert.AnError
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tags (name) VALUES ('doomed')"); err != nil {
			return err
		}

		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	var n int
	require.NoError(t, r.DB.Get(&n, "SELECT COUNT(*) FROM tags"))
	assert.Zero(t, n, "failed transaction must leave no rows behind")
}
