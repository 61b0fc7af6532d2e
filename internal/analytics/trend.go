package analytics

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
)

// orderSearchColumns mirrors the permit list search surface for order-level
// reports.
var orderSearchColumns = []string{"o.permit_number", "o.agent_name", "o.supplier_name"}

// MonthlyTrend aggregates orders per calendar month. The month index is
// month-of-year (0-11), not a year-month pair, so two different years' series
// align on the same axis position when compared.
func (s *Service) MonthlyTrend(ctx context.Context, f query.Filters) ([]model.MonthlyPoint, error) {
	b := &query.Builder{}
	f.Apply(b, "o", orderSearchColumns)

	sql := `SELECT extract(month FROM o.requested_date)::int - 1 AS month,
		count(*) AS order_count,
		coalesce(sum(o.amount), 0) AS total_value,
		avg(o.amount) AS avg_amount
		FROM orders o` + b.WhereClause() +
		` GROUP BY 1 ORDER BY 1`

	rows, err := s.pool.Query(ctx, sql, b.Args()...)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: monthly trend")
	}
	defer rows.Close()

	var points []model.MonthlyPoint
	for rows.Next() {
		var p model.MonthlyPoint
		if err := rows.Scan(&p.Month, &p.OrderCount, &p.TotalValue, &p.AvgAmount); err != nil {
			return nil, eris.Wrap(err, "analytics: scan monthly point")
		}
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "analytics: monthly trend iterate")
}

// TopAgents ranks importing agents by order count within the filtered window.
func (s *Service) TopAgents(ctx context.Context, f query.Filters, limit int) ([]model.RankedRow, error) {
	return s.rankedOrders(ctx, f, "o.agent_name", limit)
}

// TopSuppliers ranks suppliers by order count within the filtered window.
func (s *Service) TopSuppliers(ctx context.Context, f query.Filters, limit int) ([]model.RankedRow, error) {
	return s.rankedOrders(ctx, f, "o.supplier_name", limit)
}

func (s *Service) rankedOrders(ctx context.Context, f query.Filters, col string, limit int) ([]model.RankedRow, error) {
	if limit <= 0 {
		limit = s.cfg.RankedTopN
	}

	b := &query.Builder{}
	b.And(col + " <> ''")
	f.Apply(b, "o", orderSearchColumns)

	sql := `SELECT ` + col + ` AS label, count(*) AS order_count, coalesce(sum(o.amount), 0) AS total_value
		FROM orders o` + b.WhereClause() +
		` GROUP BY 1 ORDER BY order_count DESC, label ASC` +
		fmt.Sprintf(` LIMIT $%d`, b.ArgCount()+1)
	args := append(b.Args(), limit)

	return s.scanRanked(ctx, sql, args, "analytics: ranked orders")
}

// TopManufacturers ranks manufacturers by distinct order count. Values come
// from line totals since the order amount spans all of an order's products.
func (s *Service) TopManufacturers(ctx context.Context, f query.Filters, limit int) ([]model.RankedRow, error) {
	if limit <= 0 {
		limit = s.cfg.RankedTopN
	}

	b := &query.Builder{}
	b.And("i.manufacturer <> ''")
	f.Apply(b, "o", productSearchColumns)

	sql := `SELECT i.manufacturer AS label, count(DISTINCT i.order_id) AS order_count,
		coalesce(sum(i.line_total), 0) AS total_value` +
		lineItemJoin + b.WhereClause() +
		` GROUP BY 1 ORDER BY order_count DESC, label ASC` +
		fmt.Sprintf(` LIMIT $%d`, b.ArgCount()+1)
	args := append(b.Args(), limit)

	return s.scanRanked(ctx, sql, args, "analytics: ranked manufacturers")
}

// TopCategories ranks canonical dosage forms, the dashboard's market-category
// axis.
func (s *Service) TopCategories(ctx context.Context, f query.Filters, limit int) ([]model.RankedRow, error) {
	if limit <= 0 {
		limit = s.cfg.RankedTopN
	}

	formExpr := s.det.ColumnSet(ctx).ComponentExprs("i")[1]

	b := &query.Builder{}
	b.And(formExpr + " <> ''")
	f.Apply(b, "o", productSearchColumns)

	sql := `SELECT ` + formExpr + ` AS label, count(DISTINCT i.order_id) AS order_count,
		coalesce(sum(i.line_total), 0) AS total_value` +
		lineItemJoin + b.WhereClause() +
		` GROUP BY 1 ORDER BY order_count DESC, label ASC` +
		fmt.Sprintf(` LIMIT $%d`, b.ArgCount()+1)
	args := append(b.Args(), limit)

	return s.scanRanked(ctx, sql, args, "analytics: ranked categories")
}

func (s *Service) scanRanked(ctx context.Context, sql string, args []any, op string) ([]model.RankedRow, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	defer rows.Close()

	var out []model.RankedRow
	for rows.Next() {
		var r model.RankedRow
		if err := rows.Scan(&r.Label, &r.OrderCount, &r.TotalValue); err != nil {
			return nil, eris.Wrap(err, op+" scan")
		}
		r.Key = r.Label
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), op+" iterate")
}
