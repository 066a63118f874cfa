// Package pinboard is a typed client for the Pinboard v1 API, the remote
// source of truth the sync engine reconciles against.
package pinboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmarks/pinbook/internal/bookmark"
)

// Post is the wire shape of a bookmark on the service. Booleans travel as
// "yes"/"no" strings and tags as one space-separated string.
type Post struct {
	Href        string `json:"href"`
	Description string `json:"description"`
	Extended    string `json:"extended"`
	Hash        string `json:"hash"`
	Meta        string `json:"meta,omitempty"`
	Tags        string `json:"tags"`
	Time        string `json:"time"`
	Shared      string `json:"shared"`
	ToRead      string `json:"toread"`
}

// Bookmark converts a post into the local value type. Posts without a URL
// or a timestamp are incomplete and rejected; the sync engine skips them.
func (p *Post) Bookmark() (*bookmark.Bookmark, error) {
	if p.Href == "" || p.Time == "" || p.Hash == "" {
		return nil, fmt.Errorf("%w: %q", bookmark.ErrPostIncomplete, p.Href)
	}

	date, err := time.Parse(time.RFC3339, p.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: bad time %q: %w", bookmark.ErrPostIncomplete, p.Time, err)
	}

	b := &bookmark.Bookmark{
		ID:     p.Hash,
		URL:    p.Href,
		Title:  p.Description,
		Notes:  p.Extended,
		Tags:   bookmark.NormalizeTags(strings.Fields(p.Tags)),
		Date:   date,
		ToRead: p.ToRead == "yes",
		Shared: p.Shared == "yes",
	}

	return b, nil
}

// PostFromBookmark converts a local bookmark into its wire shape for a push.
func PostFromBookmark(b *bookmark.Bookmark) Post {
	return Post{
		Href:        b.URL,
		Description: b.Title,
		Extended:    b.Notes,
		Hash:        b.ID,
		Tags:        strings.Join(b.Tags, " "),
		Time:        b.Date.UTC().Format(time.RFC3339),
		Shared:      yesNo(b.Shared),
		ToRead:      yesNo(b.ToRead),
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}
