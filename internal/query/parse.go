package query

import "strings"

// Parse turns free search-bar text into a structured query. Recognized
// directives are `tag:X`, `shared:true|false`, `no:tag`, `status:unread` and
// `date:today`; every other token becomes a fuzzy text match. Tokens are
// ANDed together.
func Parse(s string) Query {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return All{}
	}

	qs := make([]Query, 0, len(tokens))
	for _, tok := range tokens {
		qs = append(qs, parseToken(tok))
	}

	return NewAnd(qs...)
}

func parseToken(tok string) Query {
	switch strings.ToLower(tok) {
	case "no:tag":
		return Untagged{}
	case "status:unread":
		return Unread{}
	case "date:today":
		return Today{}
	case "shared:true":
		return Shared{Public: true}
	case "shared:false":
		return Shared{Public: false}
	}

	if name, ok := strings.CutPrefix(tok, "tag:"); ok && name != "" {
		return NewTag(name)
	}

	return Search{Text: tok}
}
