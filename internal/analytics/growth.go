package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// Window is a three-boundary time partition splitting activity into a recent
// and a prior period of equal length.
type Window struct {
	Earliest time.Time
	Mid      time.Time
	Latest   time.Time

	// Explicit windows carry a hard upper bound (Latest is inclusive of its
	// calendar day); rolling windows anchor Latest on the max observed order
	// date, so nothing lies beyond it.
	Explicit bool
}

// RollingWindow anchors on the latest observed order date: recent is the last
// lookbackMonths, prior the lookbackMonths before that.
func RollingWindow(latest time.Time, lookbackMonths int) Window {
	return Window{
		Latest:   latest,
		Mid:      latest.AddDate(0, -lookbackMonths, 0),
		Earliest: latest.AddDate(0, -2*lookbackMonths, 0),
	}
}

// RangeWindow splits an explicit date range at its temporal midpoint.
func RangeWindow(from, to time.Time) Window {
	return Window{
		Earliest: from,
		Mid:      from.Add(to.Sub(from) / 2),
		Latest:   to,
		Explicit: true,
	}
}

// Bucket classifies a line item's order date relative to a Window.
type Bucket int

const (
	Excluded Bucket = iota
	Prior
	Recent
)

// Classify buckets a date: Recent at or after the midpoint, Prior between the
// earliest bound and the midpoint, Excluded otherwise. Explicit windows'
// upper bound is enforced by the query predicate, not here.
func Classify(date time.Time, w Window) Bucket {
	if !date.Before(w.Mid) {
		return Recent
	}
	if !date.Before(w.Earliest) {
		return Prior
	}
	return Excluded
}

// GrowthPct computes round((recent / max(1, prior) - 1) * 100). The max(1, _)
// guard keeps the arithmetic total even for prior == 0, which the growth
// candidate filter excludes but the decline path can still feed through.
func GrowthPct(recent, prior int64) int {
	if prior < 1 {
		prior = 1
	}
	return int(math.Round((float64(recent)/float64(prior) - 1) * 100))
}

// GrowthParams bounds a growth or decline ranking request. DateFrom+DateTo on
// the filters select an explicit window; otherwise the window rolls back
// LookbackMonths from the latest order date. Zero values take the configured
// defaults.
type GrowthParams struct {
	Filters        query.Filters
	LookbackMonths int
	MinPriorOrders int
	Limit          int
}

// TopGrowth ranks product groups by recent-over-prior order ratio, descending.
// A group qualifies with at least the configured prior orders and one recent
// order.
func (s *Service) TopGrowth(ctx context.Context, p GrowthParams) ([]model.GrowthRow, Window, error) {
	return s.growthRanking(ctx, p, growthRankingOpts{
		minPrior:  s.cfg.GrowthMinPriorOrders,
		direction: "DESC",
	})
}

// TopDecline ranks product groups by the same ratio ascending, most severe
// decline first. The prior-order floor is caller-tunable; noise from groups
// with a handful of historical orders is the reason for the higher default.
func (s *Service) TopDecline(ctx context.Context, p GrowthParams) ([]model.GrowthRow, Window, error) {
	minPrior := p.MinPriorOrders
	if minPrior <= 0 {
		minPrior = s.cfg.DeclineMinPriorOrders
	}
	return s.growthRanking(ctx, p, growthRankingOpts{
		minPrior:  minPrior,
		declining: true,
		direction: "ASC",
	})
}

type growthRankingOpts struct {
	minPrior  int
	declining bool
	direction string
}

// Aggregates referencing the window midpoint, bound as the placeholder
// appended right after the WHERE arguments. Postgres numbers placeholders by
// position in the argument list, not by order of appearance, so reusing the
// same number across SELECT, HAVING, and ORDER BY is fine.
const (
	recentCountExpr = `count(DISTINCT i.order_id) FILTER (WHERE o.requested_date >= %[1]s)`
	priorCountExpr  = `count(DISTINCT i.order_id) FILTER (WHERE o.requested_date < %[1]s)`
)

func (s *Service) growthRanking(ctx context.Context, p GrowthParams, opts growthRankingOpts) ([]model.GrowthRow, Window, error) {
	w, ok, err := s.resolveWindow(ctx, p)
	if err != nil {
		return nil, Window{}, err
	}
	if !ok {
		return nil, w, nil
	}

	limit := p.Limit
	if limit <= 0 {
		limit = s.cfg.GrowthTopN
	}

	exprs := s.det.ColumnSet(ctx).ComponentExprs("i")

	// The window bounds the WHERE clause; the explicit date filters are
	// consumed by the window itself and must not double-apply.
	f := p.Filters
	f.DateFrom, f.DateTo = nil, nil

	b := &query.Builder{}
	b.And("o.requested_date >= ?", w.Earliest)
	if w.Explicit {
		b.And("o.requested_date < ?", dayAfter(w.Latest))
	}
	f.Apply(b, "o", productSearchColumns)
	where := b.WhereClause()

	mid := fmt.Sprintf("$%d", b.ArgCount()+1)
	minPriorArg := fmt.Sprintf("$%d", b.ArgCount()+2)
	limitArg := fmt.Sprintf("$%d", b.ArgCount()+3)

	recent := fmt.Sprintf(recentCountExpr, mid)
	prior := fmt.Sprintf(priorCountExpr, mid)
	recentCond := " >= 1"
	if opts.declining {
		recentCond = " < " + prior
	}
	ratio := "(" + recent + ")::float8 / GREATEST(1, " + prior + ")"

	sql := `SELECT ` + exprs[0] + `, ` + exprs[1] + `, ` + exprs[2] + `, ` +
		recent + ` AS recent_orders, ` + prior + ` AS prior_orders` +
		lineItemJoin + where +
		` GROUP BY 1, 2, 3` +
		` HAVING ` + prior + ` >= ` + minPriorArg + ` AND ` + recent + recentCond +
		` ORDER BY ` + ratio + ` ` + opts.direction + `, 1 ASC` +
		` LIMIT ` + limitArg
	args := append(b.Args(), w.Mid, opts.minPrior, limit)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, Window{}, eris.Wrap(err, "analytics: growth ranking")
	}
	defer rows.Close()

	var out []model.GrowthRow
	for rows.Next() {
		var g model.GrowthRow
		if err := rows.Scan(&g.GenericName, &g.DosageForm, &g.DosageStrength,
			&g.RecentOrders, &g.PriorOrders); err != nil {
			return nil, Window{}, eris.Wrap(err, "analytics: scan growth row")
		}
		g.GrowthPct = GrowthPct(g.RecentOrders, g.PriorOrders)
		denom := g.PriorOrders
		if denom < 1 {
			denom = 1
		}
		g.Ratio = float64(g.RecentOrders) / float64(denom)
		g.Slug = canonical.EncodeSlug(canonical.Key{
			GenericName:    g.GenericName,
			DosageForm:     g.DosageForm,
			DosageStrength: g.DosageStrength,
		})
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, Window{}, eris.Wrap(err, "analytics: growth ranking iterate")
	}
	return out, w, nil
}

// resolveWindow picks the window mode from the params. The bool is false when
// the dataset is empty and a rolling window has nothing to anchor on; callers
// return an empty ranking in that case.
func (s *Service) resolveWindow(ctx context.Context, p GrowthParams) (Window, bool, error) {
	if p.Filters.DateFrom != nil && p.Filters.DateTo != nil {
		return RangeWindow(*p.Filters.DateFrom, *p.Filters.DateTo), true, nil
	}

	lookback := p.LookbackMonths
	if lookback <= 0 {
		lookback = s.cfg.DefaultLookbackMonths
	}

	latest, err := s.dates.MaxOrderDate(ctx)
	if err != nil {
		return Window{}, false, err
	}
	if latest == nil {
		return Window{}, false, nil
	}
	return RollingWindow(*latest, lookback), true, nil
}
