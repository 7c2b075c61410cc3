package igdb

import (
	"strconv"
	"strings"
)

// Query builds an Apicalypse request body. Clauses render in the order
// search, fields, where, limit, and empty clauses are left out.
type Query struct {
	search string
	fields []string
	where  string
	limit  int
}

// NewQuery returns an empty query
func NewQuery() *Query {
	return &Query{}
}

// Search sets the full-text search term. The term is quoted on render.
func (q *Query) Search(term string) *Query {
	q.search = term
	return q
}

// Fields appends to the field projection.
func (q *Query) Fields(fields ...string) *Query {
	q.fields = append(q.fields, fields...)
	return q
}

// Where sets the filter condition. The condition is rendered verbatim,
// so string values inside it must go through Quote.
func (q *Query) Where(cond string) *Query {
	q.where = cond
	return q
}

// Limit sets the page size. Values <= 0 omit the clause.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// String renders the query text sent as the request body.
func (q *Query) String() string {
	var b strings.Builder
	if q.search != "" {
		b.WriteString("search ")
		b.WriteString(Quote(q.search))
		b.WriteString("; ")
	}
	if len(q.fields) > 0 {
		b.WriteString("fields ")
		b.WriteString(strings.Join(q.fields, ","))
		b.WriteString("; ")
	}
	if q.where != "" {
		b.WriteString("where ")
		b.WriteString(q.where)
		b.WriteString("; ")
	}
	if q.limit > 0 {
		b.WriteString("limit ")
		b.WriteString(strconv.Itoa(q.limit))
		b.WriteString("; ")
	}
	return strings.TrimSuffix(b.String(), " ")
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Quote renders s as an Apicalypse string literal.
func Quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

// WhereID renders an id equality condition.
func WhereID(id int64) string {
	return "id = " + strconv.FormatInt(id, 10)
}
