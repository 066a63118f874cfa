package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/pmarks/pinbook/internal/bookmark"
)

// Tags returns every tag with its bookmark count, grouped
// case-insensitively. The canonical display name is lowercase.
func (s *Store) Tags(ctx context.Context) ([]bookmark.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tags []bookmark.Tag
	err := s.r.DB.SelectContext(ctx, &tags, `
		SELECT LOWER(t.name) AS name, COUNT(it.tag_id) AS count
		FROM tags t
		JOIN items_to_tags it ON t.id = it.tag_id
		GROUP BY LOWER(t.name)
		ORDER BY LOWER(t.name)`)
	if err != nil {
		return nil, fmt.Errorf("counting tags: %w", err)
	}

	return tags, nil
}

// DeleteTag removes a tag by name; join rows cascade. Removing a tag no
// bookmark carries fails with ErrTagNotFound.
func (s *Store) DeleteTag(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := false
	err := s.r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM tags WHERE name = ? COLLATE NOCASE", name)
		if err != nil {
			return fmt.Errorf("deleting tag: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %q", bookmark.ErrTagNotFound, name)
		}
		deleted = true

		return nil
	})
	if err != nil {
		return err
	}

	if deleted {
		s.bus.Notify(TagScope(name))
	}

	return nil
}

// tagsForItem returns the sorted lowercase tag names of one bookmark.
func (s *Store) tagsForItem(ctx context.Context, id string) ([]string, error) {
	var tags []string
	err := s.r.DB.SelectContext(ctx, &tags, `
		SELECT LOWER(t.name)
		FROM tags t
		JOIN items_to_tags it ON t.id = it.tag_id
		WHERE it.item_identifier = ?
		ORDER BY LOWER(t.name)`, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}

	return tags, nil
}

// associateTags upserts tag rows by name and links them to the bookmark.
func (s *Store) associateTags(tx *sqlx.Tx, b *bookmark.Bookmark) error {
	for _, tag := range b.Tags {
		tagID, err := getOrCreateTag(tx, tag)
		if err != nil {
			return err
		}

		_, err = tx.Exec(
			"INSERT OR IGNORE INTO items_to_tags (item_identifier, tag_id) VALUES (?, ?)",
			b.ID, tagID)
		if err != nil {
			return fmt.Errorf("associating tag %q: %w", tag, err)
		}
	}

	return nil
}

// replaceTags rewrites the bookmark's join rows to match its tag set.
func (s *Store) replaceTags(tx *sqlx.Tx, b *bookmark.Bookmark) error {
	if _, err := tx.Exec(
		"DELETE FROM items_to_tags WHERE item_identifier = ?", b.ID); err != nil {
		return fmt.Errorf("clearing tags for %q: %w", b.ID, err)
	}

	return s.associateTags(tx, b)
}

// getOrCreateTag returns the tag's row ID, creating the row if needed. The
// lookup is case-insensitive; the stored name keeps its first-seen casing.
func getOrCreateTag(tx *sqlx.Tx, name string) (int64, error) {
	var tagID int64
	err := tx.QueryRowx(
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE", name).Scan(&tagID)
	if err == nil {
		return tagID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("querying tag %q: %w", name, err)
	}

	res, err := tx.Exec("INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return 0, fmt.Errorf("creating tag %q: %w", name, err)
	}

	tagID, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("tag %q: last insert id: %w", name, err)
	}

	return tagID, nil
}

// pruneOrphanTags removes tags no bookmark references anymore.
func pruneOrphanTags(tx *sqlx.Tx) error {
	res, err := tx.Exec(`
		DELETE FROM tags
		WHERE id NOT IN (SELECT DISTINCT tag_id FROM items_to_tags)`)
	if err != nil {
		return fmt.Errorf("pruning tags: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		slog.Debug("pruned orphan tags", "count", affected)
	}

	return nil
}
