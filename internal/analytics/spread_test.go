package analytics

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efda-insights/permit-analytics/internal/query"
)

func TestSpreadPct(t *testing.T) {
	tests := []struct {
		name          string
		min, avg, max float64
		want          int
	}{
		{"documented example", 10, 15, 20, 67},
		{"full spread", 0.5, 1.0, 1.5, 100},
		{"narrow", 99, 100, 101, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpreadPct(tt.min, tt.avg, tt.max))
		})
	}
}

func spreadColumns() []string {
	return []string{"generic_name", "dosage_form", "dosage_strength",
		"order_count", "min_price", "avg_price", "max_price"}
}

func TestTopSpreads(t *testing.T) {
	s, mock := newExtendedService(t)

	mock.ExpectQuery(`HAVING count\(DISTINCT i\.order_id\) >= \$1 AND min\(i\.unit_price\) < max\(i\.unit_price\)`).
		WithArgs(5, 100).
		WillReturnRows(pgxmock.NewRows(spreadColumns()).
			AddRow("ceftriaxone", "injection", "1g", int64(8), 10.0, 15.0, 20.0).
			AddRow("omeprazole", "capsule", "20", int64(6), 2.0, 2.5, 3.0))

	page, err := s.TopSpreads(context.Background(), query.Filters{},
		query.PageRequest{Page: 1, PageSize: 25})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 67, page.Data[0].SpreadPct)
	assert.Equal(t, 40, page.Data[1].SpreadPct)
	assert.NotEmpty(t, page.Data[0].Slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The candidate set is capped server-side; pages beyond it come back empty
// instead of triggering a recompute.
func TestTopSpreads_ClientSidePagination(t *testing.T) {
	s, mock := newExtendedService(t)

	rows := pgxmock.NewRows(spreadColumns())
	for _, name := range []string{"a", "b", "c"} {
		rows.AddRow(name, "tablet", "10", int64(5), 1.0, 2.0, 3.0)
	}
	mock.ExpectQuery(`LIMIT \$2`).WithArgs(5, 100).WillReturnRows(rows)

	page, err := s.TopSpreads(context.Background(), query.Filters{},
		query.PageRequest{Page: 2, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "c", page.Data[0].GenericName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
