// Package query is a small composable filter language over the items table.
// Every query projects to a SQL boolean predicate plus a canonical filter
// string, and parsing a query's filter string yields the query back.
package query

import (
	"strings"
	"time"
)

// Query is an immutable filter expression.
type Query interface {
	// Clause returns a SQL boolean expression over the items table and its
	// bound arguments.
	Clause() (string, []any)
	// String returns the canonical filter-token representation.
	String() string
}

// All matches every bookmark.
type All struct{}

func (All) Clause() (string, []any) { return "1", nil }
func (All) String() string          { return "" }

// Untagged matches bookmarks with no tags.
type Untagged struct{}

func (Untagged) Clause() (string, []any) {
	return `NOT EXISTS (
		SELECT 1 FROM items_to_tags it
		WHERE it.item_identifier = items.identifier)`, nil
}

func (Untagged) String() string { return "no:tag" }

// Unread matches bookmarks flagged to read later.
type Unread struct{}

func (Unread) Clause() (string, []any) { return "items.to_read = 1", nil }
func (Unread) String() string          { return "status:unread" }

// Shared matches bookmarks by their public/private visibility.
type Shared struct {
	Public bool
}

func (s Shared) Clause() (string, []any) {
	return "items.shared = ?", []any{s.Public}
}

func (s Shared) String() string {
	if s.Public {
		return "shared:true"
	}

	return "shared:false"
}

// Tag matches bookmarks carrying the given tag, case-insensitively.
type Tag struct {
	Name string
}

// NewTag builds a tag query with the name normalized to lowercase.
func NewTag(name string) Tag {
	return Tag{Name: strings.ToLower(strings.TrimSpace(name))}
}

func (t Tag) Clause() (string, []any) {
	q := `EXISTS (
		SELECT 1 FROM items_to_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.item_identifier = items.identifier
		AND t.name = ? COLLATE NOCASE)`

	return q, []any{t.Name}
}

func (t Tag) String() string { return "tag:" + t.Name }

// Search fuzzily matches a single token against title, URL, notes and the
// tag list.
type Search struct {
	Text string
}

func (s Search) Clause() (string, []any) {
	q := `(LOWER(items.title) LIKE ?
		OR LOWER(items.url) LIKE ?
		OR LOWER(items.notes) LIKE ?
		OR EXISTS (
			SELECT 1 FROM items_to_tags it
			JOIN tags t ON t.id = it.tag_id
			WHERE it.item_identifier = items.identifier
			AND t.name LIKE ? COLLATE NOCASE))`
	like := "%" + strings.ToLower(s.Text) + "%"

	return q, []any{like, like, like, like}
}

func (s Search) String() string { return s.Text }

// Today matches bookmarks created since the start of the current day.
type Today struct{}

func (Today) Clause() (string, []any) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return "items.date >= ?", []any{start.Format(time.RFC3339)}
}

func (Today) String() string { return "date:today" }

// And is a conjunction of sub-queries.
type And struct {
	Queries []Query
}

// NewAnd flattens nested conjunctions and drops match-all terms. An empty
// conjunction collapses to All, a single term to itself.
func NewAnd(qs ...Query) Query {
	flat := make([]Query, 0, len(qs))
	for _, q := range qs {
		switch v := q.(type) {
		case All:
			continue
		case And:
			flat = append(flat, v.Queries...)
		default:
			flat = append(flat, q)
		}
	}

	switch len(flat) {
	case 0:
		return All{}
	case 1:
		return flat[0]
	}

	return And{Queries: flat}
}

func (a And) Clause() (string, []any) {
	if len(a.Queries) == 0 {
		return All{}.Clause()
	}

	parts := make([]string, 0, len(a.Queries))
	var args []any

	for _, q := range a.Queries {
		c, qArgs := q.Clause()
		parts = append(parts, "("+c+")")
		args = append(args, qArgs...)
	}

	return strings.Join(parts, " AND "), args
}

func (a And) String() string {
	parts := make([]string, 0, len(a.Queries))
	for _, q := range a.Queries {
		if s := q.String(); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, " ")
}
