package bookmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"bar", "foo"}, NormalizeTags([]string{"Foo", "FOO", "bar"}))
	assert.Equal(t, []string{"news"}, NormalizeTags([]string{" news ", "", "NEWS"}))
	assert.Empty(t, NormalizeTags(nil))
	assert.Empty(t, NormalizeTags([]string{"", "  "}))
}

func TestParseTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"golang", "news"}, ParseTags("News, golang"))
	assert.Equal(t, []string{"a", "b", "c"}, ParseTags("a b,c"))
	assert.Empty(t, ParseTags(""))
}

func TestBookmarkEqual(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := New("a1", "https://example.com", "Example", []string{"News", "tech"}, now)
	b := New("a1", "https://example.com", "Example", []string{"tech", "news"}, now)

	assert.True(t, a.Equal(b), "tag order must not affect equality")

	b.ToRead = true
	assert.False(t, a.Equal(b))

	c := a.Clone()
	assert.True(t, a.Equal(c))

	c.IconURLVersion = 2
	assert.False(t, a.Equal(c), "icon version is part of the value")

	assert.False(t, a.Equal(nil))
}

func TestBookmarkHasTag(t *testing.T) {
	t.Parallel()

	b := New("a1", "https://example.com", "", []string{"News"}, time.Now())
	assert.True(t, b.HasTag("news"))
	assert.True(t, b.HasTag(" NEWS "))
	assert.False(t, b.HasTag("tech"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	b := New("a1", "https://example.com", "", nil, time.Now())
	assert.NoError(t, Validate(b))

	assert.ErrorIs(t, Validate(&Bookmark{URL: "https://example.com"}), ErrIDEmpty)
	assert.ErrorIs(t, Validate(&Bookmark{ID: "a1"}), ErrURLEmpty)
}
