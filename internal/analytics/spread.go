package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// SpreadPct computes round((max - min) / avg * 100). Qualification (min < max,
// enough orders) happens in the query; by the time a row reaches here avg is
// positive.
func SpreadPct(min, avg, max float64) int {
	return int(math.Round((max - min) / avg * 100))
}

// TopSpreads ranks product groups by relative unit-price range. The candidate
// set is capped at the configured maximum before client-side pagination:
// spread-ranking the full catalog per page is too expensive to recompute, and
// the dashboard only ever walks the top of the list. The cap is policy, keep
// it.
func (s *Service) TopSpreads(ctx context.Context, f query.Filters, page query.PageRequest) (*query.Page[model.SpreadRow], error) {
	exprs := s.det.ColumnSet(ctx).ComponentExprs("i")

	b := &query.Builder{}
	b.And("i.unit_price > 0")
	f.Apply(b, "o", productSearchColumns)
	where := b.WhereClause()

	minOrdersArg := fmt.Sprintf("$%d", b.ArgCount()+1)
	capArg := fmt.Sprintf("$%d", b.ArgCount()+2)

	sql := `SELECT ` + exprs[0] + `, ` + exprs[1] + `, ` + exprs[2] + `,
		count(DISTINCT i.order_id) AS order_count,
		min(i.unit_price) AS min_price,
		avg(i.unit_price) AS avg_price,
		max(i.unit_price) AS max_price` +
		lineItemJoin + where +
		` GROUP BY 1, 2, 3` +
		` HAVING count(DISTINCT i.order_id) >= ` + minOrdersArg + ` AND min(i.unit_price) < max(i.unit_price)` +
		` ORDER BY (max(i.unit_price) - min(i.unit_price)) / avg(i.unit_price) DESC, 1 ASC` +
		` LIMIT ` + capArg
	args := append(b.Args(), s.cfg.SpreadMinOrders, s.cfg.SpreadCandidateCap)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: top spreads")
	}
	defer rows.Close()

	var all []model.SpreadRow
	for rows.Next() {
		var r model.SpreadRow
		if err := rows.Scan(&r.GenericName, &r.DosageForm, &r.DosageStrength,
			&r.OrderCount, &r.MinPrice, &r.AvgPrice, &r.MaxPrice); err != nil {
			return nil, eris.Wrap(err, "analytics: scan spread row")
		}
		r.SpreadPct = SpreadPct(r.MinPrice, r.AvgPrice, r.MaxPrice)
		r.Slug = canonical.EncodeSlug(canonical.Key{
			GenericName:    r.GenericName,
			DosageForm:     r.DosageForm,
			DosageStrength: r.DosageStrength,
		})
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: top spreads iterate")
	}
	return query.Slice(all, page), nil
}
