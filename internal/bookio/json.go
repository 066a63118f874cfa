package bookio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pmarks/pinbook/internal/bookmark"
)

// ExportJSON writes the bookmarks as an indented JSON array.
func ExportJSON(w io.Writer, bs []*bookmark.Bookmark) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(bs); err != nil {
		return fmt.Errorf("encoding bookmarks: %w", err)
	}

	return nil
}

// ParseJSON reads a JSON array previously produced by ExportJSON. Entries
// without an identifier get one derived from their URL.
func ParseJSON(r io.Reader) ([]*bookmark.Bookmark, error) {
	var bs []*bookmark.Bookmark
	if err := json.NewDecoder(r).Decode(&bs); err != nil {
		return nil, fmt.Errorf("decoding bookmarks: %w", err)
	}

	for _, b := range bs {
		b.Normalize()
		if b.ID == "" {
			b.ID = bookmark.HashURL(b.URL)
		}
	}

	return bs, nil
}
