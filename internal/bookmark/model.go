// Package bookmark defines the bookmark value type shared by the local
// store, the sync engine and the remote client.
package bookmark

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Bookmark represents a single saved URL. The identifier is assigned by the
// remote service and never changes; tags are kept lowercase with no empty
// members.
type Bookmark struct {
	ID             string    `json:"id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`
	Date           time.Time `json:"date"`
	ToRead         bool      `json:"to_read"`
	Shared         bool      `json:"shared"`
	IconURL        string    `json:"icon_url,omitempty"`
	IconURLVersion int       `json:"icon_url_version,omitempty"`
}

// New creates a bookmark with normalized tags.
func New(id, bURL, title string, tags []string, date time.Time) *Bookmark {
	return &Bookmark{
		ID:    id,
		URL:   bURL,
		Title: title,
		Tags:  NormalizeTags(tags),
		Date:  date,
	}
}

// Normalize lowercases the tag set and drops empty members in place.
func (b *Bookmark) Normalize() {
	b.Tags = NormalizeTags(b.Tags)
}

// HasTag reports whether the bookmark carries the given tag,
// case-insensitively.
func (b *Bookmark) HasTag(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range b.Tags {
		if t == name {
			return true
		}
	}

	return false
}

// Equal compares all fields, icon data included. Tag order is not
// significant because normalized tag sets are sorted.
func (b *Bookmark) Equal(other *Bookmark) bool {
	if other == nil {
		return false
	}
	if b.ID != other.ID || b.URL != other.URL || b.Title != other.Title {
		return false
	}
	if b.Notes != other.Notes || b.ToRead != other.ToRead || b.Shared != other.Shared {
		return false
	}
	if !b.Date.Equal(other.Date) {
		return false
	}
	if b.IconURL != other.IconURL || b.IconURLVersion != other.IconURLVersion {
		return false
	}
	if len(b.Tags) != len(other.Tags) {
		return false
	}
	for i := range b.Tags {
		if b.Tags[i] != other.Tags[i] {
			return false
		}
	}

	return true
}

// Clone returns a deep copy of the bookmark.
func (b *Bookmark) Clone() *Bookmark {
	c := *b
	c.Tags = make([]string, len(b.Tags))
	copy(c.Tags, b.Tags)

	return &c
}

// HashURL derives the identifier the remote service assigns to a URL, so
// bookmarks created locally keep the same ID after they are pushed.
func HashURL(bURL string) string {
	sum := md5.Sum([]byte(bURL))

	return hex.EncodeToString(sum[:])
}

// Tag is the aggregated read model of a label: its canonical lowercase name
// and the number of bookmarks referencing it.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NormalizeTags lowercases, trims, deduplicates and sorts a tag list,
// dropping empty members.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}

	sort.Strings(out)

	return out
}

// ParseTags splits a comma or space separated tag string and normalizes the
// result.
func ParseTags(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})

	return NormalizeTags(fields)
}
