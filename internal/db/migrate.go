package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// migration is one schema step. Migration n may assume all effects of
// migrations < n.
type migration struct {
	version int
	name    string
	sql     []string
}

// migrations is the ordered migration table. Versions are contiguous and
// start at 1; the stored version after a successful run equals the last
// entry's version.
var migrations = []migration{
	{
		version: 1,
		name:    "initial schema",
		sql: []string{
			`CREATE TABLE IF NOT EXISTS items (
				identifier TEXT    NOT NULL PRIMARY KEY,
				url        TEXT    NOT NULL UNIQUE,
				title      TEXT    NOT NULL DEFAULT "",
				date       TEXT    NOT NULL,
				to_read    BOOLEAN NOT NULL DEFAULT FALSE,
				shared     BOOLEAN NOT NULL DEFAULT FALSE,
				notes      TEXT    NOT NULL DEFAULT ""
			);`,
			`CREATE TABLE IF NOT EXISTS tags (
				id   INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT    NOT NULL UNIQUE COLLATE NOCASE
			);`,
			`CREATE TABLE IF NOT EXISTS items_to_tags (
				item_identifier TEXT    NOT NULL REFERENCES items(identifier) ON DELETE CASCADE,
				tag_id          INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (item_identifier, tag_id)
			);`,
			`CREATE INDEX IF NOT EXISTS idx_items_to_tags
				ON items_to_tags(item_identifier, tag_id);`,
		},
	},
	{
		version: 2,
		name:    "item icons",
		sql: []string{
			`ALTER TABLE items ADD COLUMN icon_url TEXT NOT NULL DEFAULT "";`,
			`ALTER TABLE items ADD COLUMN icon_url_version INTEGER NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: 3,
		name:    "date ordering index",
		sql: []string{
			`CREATE INDEX IF NOT EXISTS idx_items_date ON items(date DESC);`,
		},
	},
}

// SchemaVersion is the version a fully migrated database reports.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate brings the database schema up to the current version. All pending
// migrations run in strictly ascending order inside a single transaction; a
// stored version beyond the known migration table aborts with
// ErrUnknownMigration.
func (r *SQLite) Migrate(ctx context.Context) error {
	current, err := r.userVersion(ctx)
	if err != nil {
		return err
	}

	target := SchemaVersion()
	if current == target {
		slog.Debug("schema up to date", "version", current)
		return nil
	}

	if current > target {
		return fmt.Errorf("%w: stored version %d, newest known %d",
			ErrUnknownMigration, current, target)
	}

	slog.Info("migrating schema", "from", current, "to", target)

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, m := range migrations {
			if m.version <= current {
				continue
			}
			// a hole in the migration table is a packaging bug, refuse to guess
			if m.version != current+1 {
				return fmt.Errorf("%w: expected migration %d, found %d",
					ErrUnknownMigration, current+1, m.version)
			}

			slog.Debug("applying migration", "version", m.version, "name", m.name)

			for _, stmt := range m.sql {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}

			current = m.version
		}

		// PRAGMA does not take bound parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", current)); err != nil {
			return fmt.Errorf("storing schema version: %w", err)
		}

		return nil
	})
}

// userVersion reads the stored schema version marker.
func (r *SQLite) userVersion(ctx context.Context) (int, error) {
	var v int
	if err := r.DB.GetContext(ctx, &v, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	return v, nil
}
