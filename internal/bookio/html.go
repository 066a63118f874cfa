// Package bookio imports and exports bookmarks in the Netscape HTML
// format browsers and bookmarking services exchange, plus a plain JSON
// array form.
package bookio

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"time"

	xhtml "golang.org/x/net/html"

	"github.com/pmarks/pinbook/internal/bookmark"
)

var ErrNotNetscape = errors.New("not a netscape bookmark file")

const netscapeHeader = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<!-- This is an automatically generated file.
     It will be read and overwritten.
     DO NOT EDIT! -->
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
`

// ExportNetscape writes the bookmarks as a flat Netscape bookmark file.
// Sharing and read-later state travel in the PRIVATE and TOREAD
// attributes the way bookmarking services export them.
func ExportNetscape(w io.Writer, bs []*bookmark.Bookmark) error {
	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, b := range bs {
		if err := writeEntry(w, b); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "</DL><p>\n"); err != nil {
		return fmt.Errorf("writing footer: %w", err)
	}

	return nil
}

func writeEntry(w io.Writer, b *bookmark.Bookmark) error {
	var sb strings.Builder

	sb.WriteString("    <DT><A HREF=")
	sb.WriteString(strconv.Quote(html.EscapeString(b.URL)))

	if !b.Date.IsZero() {
		fmt.Fprintf(&sb, ` ADD_DATE="%d"`, b.Date.Unix())
	}

	fmt.Fprintf(&sb, ` PRIVATE="%s"`, boolAttr(!b.Shared))
	fmt.Fprintf(&sb, ` TOREAD="%s"`, boolAttr(b.ToRead))

	if len(b.Tags) > 0 {
		fmt.Fprintf(&sb, ` TAGS=%q`, html.EscapeString(strings.Join(b.Tags, ",")))
	}

	sb.WriteString(">")
	sb.WriteString(html.EscapeString(b.Title))
	sb.WriteString("</A>\n")

	if b.Notes != "" {
		fmt.Fprintf(&sb, "    <DD>%s\n", html.EscapeString(b.Notes))
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}

	return nil
}

func boolAttr(v bool) string {
	if v {
		return "1"
	}

	return "0"
}

// ParseNetscape reads a Netscape bookmark file and returns the bookmarks
// it contains. Anchors without an HREF are skipped; entries without an
// ADD_DATE get the current time. Identifiers are derived from the URL.
func ParseNetscape(r io.Reader) ([]*bookmark.Bookmark, error) {
	doc, err := xhtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	if !hasBookmarkElements(doc) {
		return nil, ErrNotNetscape
	}

	var bs []*bookmark.Bookmark
	collectAnchors(doc, &bs)

	return bs, nil
}

func hasBookmarkElements(n *xhtml.Node) bool {
	if n.Type == xhtml.ElementNode {
		switch n.Data {
		case "dt", "dd", "a", "h3":
			return true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasBookmarkElements(c) {
			return true
		}
	}

	return false
}

func collectAnchors(n *xhtml.Node, bs *[]*bookmark.Bookmark) {
	if n.Type == xhtml.ElementNode && n.Data == "a" {
		if b := parseAnchor(n); b != nil {
			*bs = append(*bs, b)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectAnchors(c, bs)
	}
}

func parseAnchor(n *xhtml.Node) *bookmark.Bookmark {
	b := &bookmark.Bookmark{Tags: []string{}}

	for _, attr := range n.Attr {
		switch attr.Key {
		case "href":
			b.URL = attr.Val
		case "add_date":
			if ts, err := strconv.ParseInt(attr.Val, 10, 64); err == nil {
				b.Date = time.Unix(ts, 0).UTC()
			}
		case "private":
			b.Shared = attr.Val != "1"
		case "toread":
			b.ToRead = attr.Val == "1"
		case "tags":
			b.Tags = bookmark.ParseTags(attr.Val)
		}
	}

	if b.URL == "" {
		return nil
	}

	b.ID = bookmark.HashURL(b.URL)
	b.Title = textContent(n)
	if b.Date.IsZero() {
		b.Date = time.Now().UTC()
	}

	// The <DD> holding the description is a sibling of the enclosing <DT>.
	if n.Parent != nil {
		for sib := n.Parent.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type == xhtml.ElementNode && sib.Data == "dd" {
				b.Notes = textContent(sib)
				break
			}
			if sib.Type == xhtml.ElementNode && sib.Data == "dt" {
				break
			}
		}
	}

	return b
}

func textContent(n *xhtml.Node) string {
	var sb strings.Builder
	appendText(n, &sb)

	return strings.TrimSpace(sb.String())
}

func appendText(n *xhtml.Node, sb *strings.Builder) {
	if n.Type == xhtml.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(c, sb)
	}
}
