// Package db owns the SQLite connection and the schema migration runner.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	maxOpenConns    = 1         // single writer owns the connection
	maxIdleConns    = 1         // keep the one connection alive
	maxLifetimeConn = time.Hour // maximum connection lifetime
)

// SQLite wraps the database handle together with its location.
type SQLite struct {
	DB        *sqlx.DB `json:"-"`
	Cfg       *Cfg     `json:"db"`
	closeOnce sync.Once
}

// Name returns the base name of the database file.
func (r *SQLite) Name() string {
	return r.Cfg.Name
}

// Close closes the database connection and logs any errors encountered.
func (r *SQLite) Close() {
	s := r.Name()
	r.closeOnce.Do(func() {
		if err := r.DB.Close(); err != nil {
			slog.Error("closing database", "name", s, "error", err)
		} else {
			slog.Debug("database closed", "name", s)
		}
	})
}

// WithTx executes fn within a transaction, rolling back on error or panic.
func (r *SQLite) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("rollback", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return fmt.Errorf("fn transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}

	return nil
}

// Cfg holds the location of a SQLite database file.
type Cfg struct {
	Name string `json:"name"` // base name of the database file
	Path string `json:"path"` // directory holding the database file
}

// Fullpath returns the full path to the database file.
func (c *Cfg) Fullpath() string {
	return filepath.Join(c.Path, c.Name)
}

// Open opens the database at the given path, applies pending migrations and
// returns the handle.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrDBNotFound)
	}

	db, err := openDatabase(path)
	if err != nil {
		slog.Error("opening database", "path", path, "error", err)
		return nil, err
	}

	r := &SQLite{
		DB: db,
		Cfg: &Cfg{
			Name: filepath.Base(path),
			Path: filepath.Dir(path),
		},
	}

	if err := r.Migrate(ctx); err != nil {
		r.Close()
		return nil, err
	}

	return r, nil
}

// openDatabase opens a SQLite database at the specified path and verifies
// the connection, returning the database handle or an error.
func openDatabase(path string) (*sqlx.DB, error) {
	slog.Debug("opening database", "path", path)

	dsn := buildSQLiteDSN(path, []string{
		"journal_mode(WAL)",
		"foreign_keys(1)",
		"synchronous(NORMAL)",
		"busy_timeout(5000)",
	})

	// in-memory databases only need foreign keys enforced
	if strings.Contains(path, "mode=memory") || path == ":memory:" {
		dsn = buildSQLiteDSN(path, []string{"foreign_keys(1)"})
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(maxLifetimeConn)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: on ping context", err)
	}

	return db, nil
}

// buildSQLiteDSN constructs a SQLite DSN from a file path and pragma
// directives in the modernc driver's `_pragma=name(value)` form.
func buildSQLiteDSN(path string, pragmas []string) string {
	if len(pragmas) == 0 {
		return path
	}

	params := url.Values{}
	for _, p := range pragmas {
		params.Add("_pragma", p)
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return fmt.Sprintf("%s%s%s", path, separator, params.Encode())
}
