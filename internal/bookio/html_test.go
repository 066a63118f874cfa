package bookio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarks/pinbook/internal/bookmark"
)

func testBookmarks(n int) []*bookmark.Bookmark {
	bs := make([]*bookmark.Bookmark, 0, n)
	for i := 0; i < n; i++ {
		b := bookmark.New(
			fmt.Sprintf("id-%d", i),
			fmt.Sprintf("https://example%d.com/", i),
			fmt.Sprintf("Title %d", i),
			[]string{"go", fmt.Sprintf("tag%d", i)},
			time.Date(2025, 3, 1, 10, 0, i, 0, time.UTC),
		)
		b.Notes = fmt.Sprintf("Notes %d", i)
		b.ToRead = i%2 == 0
		b.Shared = i%3 == 0
		bs = append(bs, b)
	}

	return bs
}

func TestNetscapeRoundTrip(t *testing.T) {
	t.Parallel()

	orig := testBookmarks(5)

	var buf bytes.Buffer
	require.NoError(t, ExportNetscape(&buf, orig))
	assert.Contains(t, buf.String(), "<!DOCTYPE NETSCAPE-Bookmark-file-1>")

	got, err := ParseNetscape(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(orig))

	for i, b := range got {
		want := orig[i]
		assert.Equal(t, want.URL, b.URL)
		assert.Equal(t, want.Title, b.Title)
		assert.Equal(t, want.Notes, b.Notes)
		assert.Equal(t, want.Tags, b.Tags)
		assert.Equal(t, want.ToRead, b.ToRead)
		assert.Equal(t, want.Shared, b.Shared)
		assert.True(t, want.Date.Equal(b.Date))
		assert.Equal(t, bookmark.HashURL(want.URL), b.ID)
	}
}

func TestNetscapeEscapesMarkup(t *testing.T) {
	t.Parallel()

	b := bookmark.New("x", "https://example.com/?a=1&b=2", "Tricks <&> Tips",
		[]string{"html"}, time.Now().UTC())

	var buf bytes.Buffer
	require.NoError(t, ExportNetscape(&buf, []*bookmark.Bookmark{b}))

	got, err := ParseNetscape(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Tricks <&> Tips", got[0].Title)
	assert.Equal(t, "https://example.com/?a=1&b=2", got[0].URL)
}

func TestParseNetscapeRejectsPlainHTML(t *testing.T) {
	t.Parallel()

	_, err := ParseNetscape(strings.NewReader("<html><body><p>hello</p></body></html>"))
	assert.ErrorIs(t, err, ErrNotNetscape)
}

func TestParseNetscapeSkipsAnchorsWithoutHref(t *testing.T) {
	t.Parallel()

	doc := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><A>no href</A>
    <DT><A HREF="https://example.com/">kept</A>
</DL><p>
`

	got, err := ParseNetscape(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.com/", got[0].URL)
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	orig := testBookmarks(3)
	orig[0].ID = ""

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, orig))

	got, err := ParseJSON(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, bookmark.HashURL(orig[0].URL), got[0].ID)
	assert.Equal(t, orig[1].ID, got[1].ID)
	assert.Equal(t, orig[2].Tags, got[2].Tags)
}
