// Package store is the SQL-backed bookmark cache. All operations are
// serialized on an internal mutex owning the database handle; change
// notifications are fanned out on a separate delivery goroutine so observer
// work never stalls storage.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pmarks/pinbook/internal/bookmark"
	"github.com/pmarks/pinbook/internal/db"
	"github.com/pmarks/pinbook/internal/query"
)

// Store owns the single database connection. Callers may invoke it from any
// goroutine; operations are totally ordered by the internal mutex.
type Store struct {
	mu  sync.Mutex // serializes every touch of the connection
	r   *db.SQLite
	bus *Bus
}

// New wraps an opened, migrated database.
func New(r *db.SQLite) *Store {
	return &Store{r: r, bus: NewBus()}
}

// Close drains and stops the notification bus. The database handle is owned
// by the caller and closed separately.
func (s *Store) Close() {
	s.bus.Close()
}

// Subscribe registers an observer for change notifications.
func (s *Store) Subscribe(fn ObserverFunc) Handle {
	return s.bus.Subscribe(fn)
}

// Unsubscribe removes an observer by its handle.
func (s *Store) Unsubscribe(h Handle) {
	s.bus.Unsubscribe(h)
}

// WaitForChange blocks until any change notification fires or the context
// ends. The notification may not correspond to the change the caller is
// interested in; re-check state after waking.
func (s *Store) WaitForChange(ctx context.Context) error {
	return s.bus.Wait(ctx)
}

// itemRow is the database shape of a bookmark. Dates are stored as RFC 3339
// UTC strings so lexicographic order matches chronological order.
type itemRow struct {
	ID             string `db:"identifier"`
	URL            string `db:"url"`
	Title          string `db:"title"`
	Date           string `db:"date"`
	ToRead         bool   `db:"to_read"`
	Shared         bool   `db:"shared"`
	Notes          string `db:"notes"`
	IconURL        string `db:"icon_url"`
	IconURLVersion int    `db:"icon_url_version"`
}

func rowFromBookmark(b *bookmark.Bookmark) *itemRow {
	return &itemRow{
		ID:             b.ID,
		URL:            b.URL,
		Title:          b.Title,
		Date:           b.Date.UTC().Format(time.RFC3339),
		ToRead:         b.ToRead,
		Shared:         b.Shared,
		Notes:          b.Notes,
		IconURL:        b.IconURL,
		IconURLVersion: b.IconURLVersion,
	}
}

func (r *itemRow) bookmark() (*bookmark.Bookmark, error) {
	date, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q for %q: %w",
			bookmark.ErrCorrupted, r.Date, r.ID, err)
	}

	return &bookmark.Bookmark{
		ID:             r.ID,
		URL:            r.URL,
		Title:          r.Title,
		Notes:          r.Notes,
		Tags:           []string{},
		Date:           date,
		ToRead:         r.ToRead,
		Shared:         r.Shared,
		IconURL:        r.IconURL,
		IconURLVersion: r.IconURLVersion,
	}, nil
}

// Bookmark returns a single bookmark by identifier, tags populated.
func (s *Store) Bookmark(ctx context.Context, id string) (*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getByID(ctx, id)
}

func (s *Store) getByID(ctx context.Context, id string) (*bookmark.Bookmark, error) {
	var row itemRow
	err := s.r.DB.GetContext(ctx, &row, "SELECT * FROM items WHERE identifier = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", bookmark.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting bookmark: %w", err)
	}

	b, err := row.bookmark()
	if err != nil {
		return nil, err
	}

	tags, err := s.tagsForItem(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Tags = tags

	return b, nil
}

// InsertOrUpdate upserts a bookmark by identifier. A value-identical upsert
// is a no-op and emits no notification. An incoming icon version lower than
// the stored one never overwrites the stored icon.
func (s *Store) InsertOrUpdate(ctx context.Context, b *bookmark.Bookmark) error {
	if err := bookmark.Validate(b); err != nil {
		return err
	}

	incoming := b.Clone()
	incoming.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	err := s.r.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.getByIDTx(tx, incoming.ID)
		if err != nil && !errors.Is(err, bookmark.ErrNotFound) {
			return err
		}

		if existing == nil {
			if err := insertItem(tx, incoming); err != nil {
				return err
			}
			if err := s.associateTags(tx, incoming); err != nil {
				return err
			}
			changed = true

			return pruneOrphanTags(tx)
		}

		// never regress derived icon data
		if incoming.IconURLVersion < existing.IconURLVersion {
			incoming.IconURL = existing.IconURL
			incoming.IconURLVersion = existing.IconURLVersion
		}

		if incoming.Equal(existing) {
			slog.Debug("upsert is a no-op", "id", incoming.ID)
			return nil
		}

		if err := updateItem(tx, incoming); err != nil {
			return err
		}
		if err := s.replaceTags(tx, incoming); err != nil {
			return err
		}
		changed = true

		return pruneOrphanTags(tx)
	})
	if err != nil {
		return fmt.Errorf("upsert %q: %w", incoming.ID, err)
	}

	if changed {
		s.bus.Notify(BookmarkScope(incoming.ID))
	}

	return nil
}

// Delete removes a bookmark by identifier and prunes orphaned tags.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM items WHERE identifier = ?", id)
		if err != nil {
			return fmt.Errorf("deleting bookmark: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %q", bookmark.ErrNotFound, id)
		}

		return pruneOrphanTags(tx)
	})
	if err != nil {
		return err
	}

	s.bus.Notify(BookmarkScope(id))

	return nil
}

// Clear removes all bookmarks, tags and join rows in one transaction.
// Clearing an empty store is a no-op and emits no notification.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := false
	err := s.r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"items_to_tags", "items", "tags"} {
			res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
			if err != nil {
				return fmt.Errorf("clearing table %q: %w", table, err)
			}
			if n, err := res.RowsAffected(); err == nil && n > 0 {
				cleared = true
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if cleared {
		slog.Debug("store cleared")
		s.bus.Notify(AllScope())
	}

	return nil
}

// Bookmarks returns bookmarks matching the query, newest first. Tags are
// not populated on this bulk path; fetch a single bookmark by identifier
// when the tag set is needed.
func (s *Store) Bookmarks(ctx context.Context, q query.Query, limit int) ([]*bookmark.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := q.Clause()
	sqlq := "SELECT * FROM items WHERE " + clause + " ORDER BY date DESC"
	if limit > 0 {
		sqlq += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []itemRow
	if err := s.r.DB.SelectContext(ctx, &rows, sqlq, args...); err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}

	bs := make([]*bookmark.Bookmark, 0, len(rows))
	for i := range rows {
		b, err := rows[i].bookmark()
		if err != nil {
			return nil, err
		}
		bs = append(bs, b)
	}

	return bs, nil
}

// Count returns the number of bookmarks matching the query.
func (s *Store) Count(ctx context.Context, q query.Query) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clause, args := q.Clause()

	var n int
	err := s.r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM items WHERE "+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("counting bookmarks: %w", err)
	}

	return n, nil
}

// Identifiers returns all stored identifiers. Order is not guaranteed.
func (s *Store) Identifiers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	if err := s.r.DB.SelectContext(ctx, &ids, "SELECT identifier FROM items"); err != nil {
		return nil, fmt.Errorf("listing identifiers: %w", err)
	}

	return ids, nil
}

// getByIDTx loads a bookmark with its tags inside a transaction.
func (s *Store) getByIDTx(tx *sqlx.Tx, id string) (*bookmark.Bookmark, error) {
	var row itemRow
	err := tx.Get(&row, "SELECT * FROM items WHERE identifier = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", bookmark.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting bookmark: %w", err)
	}

	b, err := row.bookmark()
	if err != nil {
		return nil, err
	}

	var tags []string
	err = tx.Select(&tags, `
		SELECT LOWER(t.name)
		FROM tags t
		JOIN items_to_tags it ON t.id = it.tag_id
		WHERE it.item_identifier = ?
		ORDER BY LOWER(t.name)`, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	b.Tags = tags

	return b, nil
}

func insertItem(tx *sqlx.Tx, b *bookmark.Bookmark) error {
	_, err := tx.NamedExec(`
		INSERT INTO items
			(identifier, url, title, date, to_read, shared, notes, icon_url, icon_url_version)
		VALUES
			(:identifier, :url, :title, :date, :to_read, :shared, :notes, :icon_url, :icon_url_version)`,
		rowFromBookmark(b))
	if err != nil {
		return fmt.Errorf("inserting %q: %w", b.URL, err)
	}

	slog.Debug("inserted bookmark", "id", b.ID, "url", b.URL)

	return nil
}

func updateItem(tx *sqlx.Tx, b *bookmark.Bookmark) error {
	_, err := tx.NamedExec(`
		UPDATE items SET
			url = :url,
			title = :title,
			date = :date,
			to_read = :to_read,
			shared = :shared,
			notes = :notes,
			icon_url = :icon_url,
			icon_url_version = :icon_url_version
		WHERE identifier = :identifier`,
		rowFromBookmark(b))
	if err != nil {
		return fmt.Errorf("updating %q: %w", b.URL, err)
	}

	slog.Debug("updated bookmark", "id", b.ID, "url", b.URL)

	return nil
}
