package analytics

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// CompareReport selects which report a dual-period comparison runs.
type CompareReport string

const (
	CompareAgents        CompareReport = "agents"
	CompareSuppliers     CompareReport = "suppliers"
	CompareManufacturers CompareReport = "manufacturers"
	CompareCategories    CompareReport = "categories"
	CompareGrowth        CompareReport = "growth"
	CompareMonthly       CompareReport = "monthly"
)

// ParseCompareReport validates a report name from the request path.
func ParseCompareReport(s string) (CompareReport, error) {
	switch r := CompareReport(s); r {
	case CompareAgents, CompareSuppliers, CompareManufacturers,
		CompareCategories, CompareGrowth, CompareMonthly:
		return r, nil
	default:
		return "", eris.Errorf("unknown comparison report: %q", s)
	}
}

// Period is one of the two date ranges under comparison.
type Period struct {
	From time.Time
	To   time.Time
}

// CompareParams bounds a dual-period comparison. Filters apply to both sides;
// their date fields are overridden by the periods.
type CompareParams struct {
	Report  CompareReport
	A, B    Period
	Filters query.Filters
}

// entry is one side's values under a shared merge key.
type entry struct {
	Key   string
	Label string
	Count int64
	Value float64
	Avg   *float64
}

// mergeEntries aligns two result sets by key. Numeric fields default to zero
// for the side missing the key; the Avg trend field stays nil so charts render
// a gap instead of a false zero. Emission order follows first appearance
// (all of A, then B-only keys).
func mergeEntries(a, b []entry) []model.ComparisonRow {
	index := make(map[string]int, len(a)+len(b))
	rows := make([]model.ComparisonRow, 0, len(a)+len(b))

	at := func(e entry) int {
		if i, ok := index[e.Key]; ok {
			return i
		}
		rows = append(rows, model.ComparisonRow{Key: e.Key, Label: e.Label})
		index[e.Key] = len(rows) - 1
		return len(rows) - 1
	}

	for _, e := range a {
		r := &rows[at(e)]
		r.AOrderCount = e.Count
		r.ATotalValue = e.Value
		r.AAvgAmount = e.Avg
	}
	for _, e := range b {
		r := &rows[at(e)]
		r.BOrderCount = e.Count
		r.BTotalValue = e.Value
		r.BAvgAmount = e.Avg
	}
	return rows
}

// sortByMaxValue orders merged rows by the larger side's value, descending.
func sortByMaxValue(rows []model.ComparisonRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return maxSide(rows[i]) > maxSide(rows[j])
	})
}

func maxSide(r model.ComparisonRow) float64 {
	if r.ATotalValue > r.BTotalValue {
		return r.ATotalValue
	}
	return r.BTotalValue
}

// Compare runs the selected report once per period, in parallel, and merges
// the two result sets. Ranked reports are truncated to the configured top-N
// after the merge so a key strong in only one period still places.
func (s *Service) Compare(ctx context.Context, p CompareParams) ([]model.ComparisonRow, error) {
	fetch := s.fetcher(p.Report)

	var sideA, sideB []entry
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sideA, err = fetch(gctx, periodFilters(p.Filters, p.A))
		return err
	})
	g.Go(func() error {
		var err error
		sideB, err = fetch(gctx, periodFilters(p.Filters, p.B))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := mergeEntries(sideA, sideB)
	switch p.Report {
	case CompareMonthly:
		sort.SliceStable(rows, func(i, j int) bool { return monthIndex(rows[i]) < monthIndex(rows[j]) })
	case CompareGrowth:
		sortByMaxValue(rows)
		rows = truncate(rows, s.cfg.GrowthTopN)
	default:
		sortByMaxValue(rows)
		rows = truncate(rows, s.cfg.RankedTopN)
	}
	return rows, nil
}

func truncate(rows []model.ComparisonRow, n int) []model.ComparisonRow {
	if n > 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}

func monthIndex(r model.ComparisonRow) int {
	n, _ := strconv.Atoi(r.Key)
	return n
}

func periodFilters(f query.Filters, p Period) query.Filters {
	from, to := p.From, p.To
	f.DateFrom, f.DateTo = &from, &to
	return f
}

// fetcher adapts each report to the shared entry shape.
func (s *Service) fetcher(report CompareReport) func(context.Context, query.Filters) ([]entry, error) {
	switch report {
	case CompareMonthly:
		return func(ctx context.Context, f query.Filters) ([]entry, error) {
			points, err := s.MonthlyTrend(ctx, f)
			if err != nil {
				return nil, err
			}
			out := make([]entry, 0, len(points))
			for _, p := range points {
				out = append(out, entry{
					Key:   strconv.Itoa(p.Month),
					Label: time.Month(p.Month + 1).String(),
					Count: p.OrderCount,
					Value: p.TotalValue,
					Avg:   p.AvgAmount,
				})
			}
			return out, nil
		}
	case CompareGrowth:
		return func(ctx context.Context, f query.Filters) ([]entry, error) {
			rows, _, err := s.TopGrowth(ctx, GrowthParams{Filters: f})
			if err != nil {
				return nil, err
			}
			out := make([]entry, 0, len(rows))
			for _, g := range rows {
				out = append(out, entry{
					Key:   g.Slug,
					Label: g.GenericName,
					Count: g.RecentOrders,
					Value: float64(g.RecentOrders),
				})
			}
			return out, nil
		}
	case CompareManufacturers:
		return s.rankedFetcher(s.TopManufacturers)
	case CompareCategories:
		return s.rankedFetcher(s.TopCategories)
	case CompareSuppliers:
		return s.rankedFetcher(s.TopSuppliers)
	default:
		return s.rankedFetcher(s.TopAgents)
	}
}

func (s *Service) rankedFetcher(fn func(context.Context, query.Filters, int) ([]model.RankedRow, error)) func(context.Context, query.Filters) ([]entry, error) {
	return func(ctx context.Context, f query.Filters) ([]entry, error) {
		rows, err := fn(ctx, f, s.cfg.RankedTopN)
		if err != nil {
			return nil, err
		}
		out := make([]entry, 0, len(rows))
		for _, r := range rows {
			out = append(out, entry{Key: r.Key, Label: r.Label, Count: r.OrderCount, Value: r.TotalValue})
		}
		return out, nil
	}
}
