package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/model"
	"github.com/efda-insights/permit-analytics/internal/query"
	"github.com/efda-insights/permit-analytics/internal/store"
)

// productAggregates are the output columns computed per canonical group. avg
// price considers priced items only so free samples and unpriced lines do not
// drag the average to zero.
const productAggregates = `count(DISTINCT i.order_id) AS order_count,
	count(DISTINCT nullif(btrim(i.brand_name), '')) AS brand_count,
	count(DISTINCT nullif(btrim(o.supplier_name), '')) AS supplier_count,
	coalesce(sum(i.quantity), 0) AS total_quantity,
	coalesce(avg(i.unit_price) FILTER (WHERE i.unit_price > 0), 0) AS avg_price,
	coalesce(sum(i.line_total), 0) AS total_value`

// ListProducts returns one page of the aggregated product catalog. The total
// counts distinct canonical groups under the same filters, not line items.
func (s *Service) ListProducts(ctx context.Context, f query.Filters, sortBy, sortDir string, page query.PageRequest) (*query.Page[model.ProductRow], error) {
	exprs := s.det.ColumnSet(ctx).ComponentExprs("i")

	b := &query.Builder{}
	f.Apply(b, "o", productSearchColumns)
	where := b.WhereClause()
	groupBy := " GROUP BY 1, 2, 3"

	// The subquery must select the three key expressions: the outer GROUP BY
	// ordinals resolve against its select list.
	var total int
	countSQL := `SELECT count(*) FROM (SELECT ` + exprs[0] + `, ` + exprs[1] + `, ` + exprs[2] +
		lineItemJoin + where + groupBy + `) AS groups`
	if err := s.pool.QueryRow(ctx, countSQL, b.Args()...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "analytics: count product groups")
	}

	sort := query.ResolveSort(query.ProductSortColumns, sortBy, sortDir, "value", "desc")
	sql := `SELECT ` + exprs[0] + ` AS generic_name, ` + exprs[1] + ` AS dosage_form, ` +
		exprs[2] + ` AS dosage_strength, ` + productAggregates +
		lineItemJoin + where + groupBy + sort.OrderBy() +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, b.ArgCount()+1, b.ArgCount()+2)
	args := append(b.Args(), page.PageSize, page.Offset())

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "analytics: list products")
	}
	defer rows.Close()

	var products []model.ProductRow
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "analytics: scan product row")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "analytics: list products iterate")
	}
	return query.NewPage(products, total, page), nil
}

// ProductDetail computes the aggregate row for one canonical group. It fails
// with store.ErrNotFound when no line item matches the key; a decoded slug that
// names no real product is indistinguishable from a deleted one.
func (s *Service) ProductDetail(ctx context.Context, key canonical.Key) (*model.ProductRow, error) {
	exprs := s.det.ColumnSet(ctx).ComponentExprs("i")

	sql := `SELECT ` + exprs[0] + ` AS generic_name, ` + exprs[1] + ` AS dosage_form, ` +
		exprs[2] + ` AS dosage_strength, ` + productAggregates +
		lineItemJoin +
		` WHERE ` + exprs[0] + ` = $1 AND ` + exprs[1] + ` = $2 AND ` + exprs[2] + ` = $3` +
		` GROUP BY 1, 2, 3`

	row := s.pool.QueryRow(ctx, sql, key.GenericName, key.DosageForm, key.DosageStrength)
	p, err := scanProductRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(store.ErrNotFound, "product %s", key)
		}
		return nil, eris.Wrap(err, "analytics: product detail")
	}
	return &p, nil
}

func scanProductRow(row pgx.Row) (model.ProductRow, error) {
	var p model.ProductRow
	err := row.Scan(&p.GenericName, &p.DosageForm, &p.DosageStrength,
		&p.OrderCount, &p.BrandCount, &p.SupplierCount,
		&p.TotalQuantity, &p.AvgPrice, &p.TotalValue)
	if err != nil {
		return model.ProductRow{}, err
	}
	p.Slug = canonical.EncodeSlug(canonical.Key{
		GenericName:    p.GenericName,
		DosageForm:     p.DosageForm,
		DosageStrength: p.DosageStrength,
	})
	return p, nil
}
