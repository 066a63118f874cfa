package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmarks/pinbook/internal/bookmark"
	"github.com/pmarks/pinbook/internal/query"
)

func TestTagsAggregation(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, tags := range [][]string{{"go", "news"}, {"GO"}, {"news", "go"}} {
		b := &bookmark.Bookmark{
			ID:   string(rune('a' + i)),
			URL:  "https://example.com/" + string(rune('a'+i)),
			Tags: tags,
			Date: date,
		}
		require.NoError(t, s.InsertOrUpdate(ctx, b))
	}

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bookmark.Tag{
		{Name: "go", Count: 3},
		{Name: "news", Count: 2},
	}, tags, "counts group case-insensitively, names are lowercase")
}

func TestDeleteTag(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()
	rec := record(t, s)

	require.NoError(t, s.InsertOrUpdate(ctx, testBookmark()))
	rec.next(t)

	require.NoError(t, s.DeleteTag(ctx, "news"))
	assert.Equal(t, TagScope("news"), rec.next(t))

	// join rows cascade: the bookmark survives without the tag
	got, err := s.Bookmark(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, []string{"tech"}, got.Tags)

	n, err := s.Count(ctx, query.All{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteTagMissing(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)

	assert.ErrorIs(t, s.DeleteTag(context.Background(), "nope"), bookmark.ErrTagNotFound)
}

func TestDeleteTagCaseInsensitive(t *testing.T) {
	t.Parallel()

	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertOrUpdate(ctx, testBookmark()))
	require.NoError(t, s.DeleteTag(ctx, "NEWS"))

	tags, err := s.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []bookmark.Tag{{Name: "tech", Count: 1}}, tags)
}
