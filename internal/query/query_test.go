package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClauses(t *testing.T) {
	t.Parallel()

	c, args := All{}.Clause()
	assert.Equal(t, "1", c)
	assert.Empty(t, args)

	c, args = Unread{}.Clause()
	assert.Equal(t, "items.to_read = 1", c)
	assert.Empty(t, args)

	_, args = Shared{Public: true}.Clause()
	assert.Equal(t, []any{true}, args)

	_, args = NewTag("News").Clause()
	assert.Equal(t, []any{"news"}, args, "tag names are normalized to lowercase")

	_, args = (Search{Text: "Gopher"}).Clause()
	assert.Equal(t, []any{"%gopher%", "%gopher%", "%gopher%", "%gopher%"}, args)

	_, args = Today{}.Clause()
	assert.Len(t, args, 1)
}

func TestNewAndFlattens(t *testing.T) {
	t.Parallel()

	q := NewAnd(NewTag("news"), NewAnd(Unread{}, Shared{Public: false}))
	and, ok := q.(And)
	assert.True(t, ok)
	assert.Len(t, and.Queries, 3, "nested conjunctions must flatten")

	assert.Equal(t, All{}, NewAnd(), "empty conjunction is match-all")
	assert.Equal(t, All{}, NewAnd(All{}))
	assert.Equal(t, Unread{}, NewAnd(All{}, Unread{}), "single term collapses")
}

func TestAndClauseOrder(t *testing.T) {
	t.Parallel()

	q := NewAnd(Unread{}, Shared{Public: true})
	c, args := q.Clause()
	assert.Equal(t, "(items.to_read = 1) AND (items.shared = ?)", c)
	assert.Equal(t, []any{true}, args)
}

func TestParseDirectives(t *testing.T) {
	t.Parallel()

	assert.Equal(t, All{}, Parse(""))
	assert.Equal(t, All{}, Parse("   "))
	assert.Equal(t, Untagged{}, Parse("no:tag"))
	assert.Equal(t, Unread{}, Parse("status:unread"))
	assert.Equal(t, Today{}, Parse("date:today"))
	assert.Equal(t, Shared{Public: true}, Parse("shared:true"))
	assert.Equal(t, Shared{Public: false}, Parse("shared:false"))
	assert.Equal(t, Tag{Name: "news"}, Parse("tag:News"))
	assert.Equal(t, Search{Text: "gopher"}, Parse("gopher"))
}

func TestParseConjunction(t *testing.T) {
	t.Parallel()

	q := Parse("tag:news status:unread gopher")
	assert.Equal(t, And{Queries: []Query{
		Tag{Name: "news"},
		Unread{},
		Search{Text: "gopher"},
	}}, q)
}

// Round-trip law: parsing a query's filter string reconstructs the query.
func TestFilterStringRoundTrip(t *testing.T) {
	t.Parallel()

	queries := []Query{
		All{},
		Untagged{},
		Unread{},
		Today{},
		Shared{Public: true},
		Shared{Public: false},
		Tag{Name: "news"},
		Search{Text: "gopher"},
		NewAnd(Tag{Name: "news"}, Unread{}),
		NewAnd(Untagged{}, Shared{Public: false}, Search{Text: "sqlite"}),
	}

	for _, q := range queries {
		got := Parse(q.String())
		assert.Equal(t, q, got, "round-trip of %q", q.String())

		wantSQL, wantArgs := q.Clause()
		gotSQL, gotArgs := got.Clause()
		assert.Equal(t, wantSQL, gotSQL)
		assert.Equal(t, wantArgs, gotArgs)
	}
}
