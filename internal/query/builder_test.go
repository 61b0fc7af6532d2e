package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/efda-insights/permit-analytics/internal/model"
)

func TestBuilder_Empty(t *testing.T) {
	b := &Builder{}
	assert.Equal(t, "", b.WhereClause())
	assert.Empty(t, b.Args())
	assert.Equal(t, 0, b.ArgCount())
}

func TestBuilder_NumbersPlaceholders(t *testing.T) {
	b := &Builder{}
	b.And("o.permit_type = ?", "medicine")
	b.And("o.port_name = ?", "Addis Ababa Airport")

	assert.Equal(t, " WHERE o.permit_type = $1 AND o.port_name = $2", b.WhereClause())
	assert.Equal(t, []any{"medicine", "Addis Ababa Airport"}, b.Args())
	assert.Equal(t, 2, b.ArgCount())
}

func TestFilters_Apply_All(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	f := Filters{
		Search:   "ibuprofen",
		Type:     model.PermitMedicine,
		DateFrom: &from,
		DateTo:   &to,
		Port:     "Djibouti",
	}

	b := &Builder{}
	f.Apply(b, "o", []string{"i.generic_name", "i.brand_name"})

	clause := b.WhereClause()
	assert.Contains(t, clause, `(i.generic_name ILIKE '%' || $1 || '%' ESCAPE '\' OR i.brand_name ILIKE '%' || $2 || '%' ESCAPE '\')`)
	assert.Contains(t, clause, "o.permit_type = $3")
	assert.Contains(t, clause, "o.requested_date >= $4")
	assert.Contains(t, clause, "o.requested_date < $5")
	assert.Contains(t, clause, "o.port_name = $6")

	args := b.Args()
	assert.Equal(t, "ibuprofen", args[0])
	assert.Equal(t, "ibuprofen", args[1])
	assert.Equal(t, "medicine", args[2])
	assert.Equal(t, from, args[3])
	// dateTo is inclusive of the whole calendar day
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), args[4])
	assert.Equal(t, "Djibouti", args[5])
}

func TestFilters_Apply_DateToWithTimeOfDay(t *testing.T) {
	to := time.Date(2024, 6, 30, 17, 45, 12, 0, time.UTC)

	f := Filters{DateTo: &to}
	b := &Builder{}
	f.Apply(b, "o", nil)

	assert.Equal(t, " WHERE o.requested_date < $1", b.WhereClause())
	// Time-of-day is dropped before adding the day
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), b.Args()[0])
}

func TestFilters_Apply_Empty(t *testing.T) {
	b := &Builder{}
	Filters{}.Apply(b, "o", []string{"o.agent_name"})
	assert.Equal(t, "", b.WhereClause())
}

func TestFilters_Apply_SearchEscapesWildcards(t *testing.T) {
	b := &Builder{}
	Filters{Search: `50%_a\b`}.Apply(b, "o", []string{"o.agent_name"})

	// LIKE metacharacters in the term match literally, not as wildcards.
	assert.Contains(t, b.WhereClause(), `ESCAPE '\'`)
	assert.Equal(t, []any{`50\%\_a\\b`}, b.Args())
}

func TestFilters_Apply_SearchWithoutColumns(t *testing.T) {
	b := &Builder{}
	Filters{Search: "x"}.Apply(b, "o", nil)
	assert.Equal(t, "", b.WhereClause())
}
