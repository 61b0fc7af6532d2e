// Package query assembles filter predicates, whitelisted sorting, and
// pagination bounds into parameterized SQL fragments. User-supplied values are
// always bound parameters; only internally enumerated column and direction
// names are interpolated into query text.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/efda-insights/permit-analytics/internal/model"
)

// Filters is the filter surface consumed from the presentation layer. Zero
// values mean "not filtered".
type Filters struct {
	Search   string
	Type     model.PermitType
	DateFrom *time.Time
	DateTo   *time.Time
	Port     string
}

// Builder accumulates WHERE conditions with positional arguments. Conditions
// use `?` markers which are rewritten to `$n` placeholders on render.
type Builder struct {
	conds []string
	args  []any
}

// And appends a condition. The number of `?` markers must match len(vals).
func (b *Builder) And(cond string, vals ...any) *Builder {
	b.conds = append(b.conds, cond)
	b.args = append(b.args, vals...)
	return b
}

// WhereClause renders the accumulated conditions as a WHERE clause with
// numbered placeholders, or returns "" when no condition was added.
func (b *Builder) WhereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	joined := strings.Join(b.conds, " AND ")
	var sb strings.Builder
	n := 0
	for _, r := range joined {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return " WHERE " + sb.String()
}

// Args returns the bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}

// ArgCount returns how many arguments have been bound so far. Callers that
// append their own numbered placeholders (LIMIT/OFFSET, window bounds) start
// from ArgCount()+1.
func (b *Builder) ArgCount() int {
	return len(b.args)
}

// Apply adds the standard permit filters against the order alias, with the
// search term matched case-insensitively across searchCols, OR-combined.
//
// DateFrom is an inclusive lower bound. DateTo is inclusive of the entire
// calendar day: it is applied as `date < dateTo+1day` so time-of-day
// components on stored dates cannot silently exclude the last day.
func (f Filters) Apply(b *Builder, orderAlias string, searchCols []string) {
	if f.Search != "" && len(searchCols) > 0 {
		term := escapeLike(f.Search)
		parts := make([]string, len(searchCols))
		vals := make([]any, len(searchCols))
		for i, col := range searchCols {
			parts[i] = col + ` ILIKE '%' || ? || '%' ESCAPE '\'`
			vals[i] = term
		}
		b.And("("+strings.Join(parts, " OR ")+")", vals...)
	}
	if f.Type != "" {
		b.And(orderAlias+".permit_type = ?", string(f.Type))
	}
	if f.DateFrom != nil {
		b.And(orderAlias+".requested_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		b.And(orderAlias+".requested_date < ?", nextDay(*f.DateTo))
	}
	if f.Port != "" {
		b.And(orderAlias+".port_name = ?", f.Port)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralizes LIKE wildcards in a user-supplied term so the search
// matches the substring literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// nextDay returns midnight of the day after t, in t's location.
func nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
