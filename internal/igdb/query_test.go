package igdb

import (
	"strings"
	"testing"
)

func TestQuery_String(t *testing.T) {
	tests := []struct {
		name  string
		query *Query
		want  string
	}{
		{
			name:  "empty",
			query: NewQuery(),
			want:  "",
		},
		{
			name:  "search with fields and limit",
			query: NewQuery().Search("zelda").Fields("name", "rating").Limit(5),
			want:  `search "zelda"; fields name,rating; limit 5;`,
		},
		{
			name:  "where without limit",
			query: NewQuery().Fields("name").Where(WhereID(1920)),
			want:  `fields name; where id = 1920;`,
		},
		{
			name:  "clause order is fixed",
			query: NewQuery().Limit(3).Where("rating > 80").Fields("name").Search("mario"),
			want:  `search "mario"; fields name; where rating > 80; limit 3;`,
		},
		{
			name:  "zero limit omitted",
			query: NewQuery().Fields("name").Limit(0),
			want:  `fields name;`,
		},
		{
			name:  "fields accumulate",
			query: NewQuery().Fields("name").Fields("summary", "cover.url"),
			want:  `fields name,summary,cover.url;`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`zelda`, `"zelda"`},
		{`Final Fantasy: Tactics`, `"Final Fantasy: Tactics"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{`trailing\`, `"trailing\\"`},
		{`\"`, `"\\\""`},
		{``, `""`},
	}

	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Every literal quote in the input must appear escaped in the output,
// and the literal must not terminate early.
func TestQuote_NoUnescapedQuotes(t *testing.T) {
	inputs := []string{
		`"`, `""`, `a"b"c`, `"; fields *; limit 500; "`, `\`, `\\"`, `x\"y`,
	}

	for _, in := range inputs {
		quoted := Quote(in)
		inner := quoted[1 : len(quoted)-1]

		escaped := false
		for i, r := range inner {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				t.Errorf("Quote(%q) has unescaped quote at %d: %s", in, i, quoted)
			}
		}
		if escaped {
			t.Errorf("Quote(%q) ends inside an escape: %s", in, quoted)
		}
		if n := strings.Count(in, `"`); strings.Count(inner, `\"`) < n {
			t.Errorf("Quote(%q) escaped fewer than %d quotes: %s", in, n, quoted)
		}
	}
}

func TestWhereID(t *testing.T) {
	if got := WhereID(42); got != "id = 42" {
		t.Errorf("WhereID(42) = %q", got)
	}
}
