package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/efda-insights/permit-analytics/internal/db"
	"github.com/efda-insights/permit-analytics/internal/normalize"
)

var orderColumns = []string{"id", "permit_number", "agent_name", "supplier_name",
	"port_name", "amount", "currency", "permit_type", "status", "requested_date", "created_at"}

var lineItemColumns = []string{"id", "order_id", "generic_name", "brand_name",
	"manufacturer", "dosage_form", "dosage_strength", "unit", "quantity",
	"unit_price", "line_total", "norm_generic_name", "norm_dosage_form", "norm_dosage_strength"}

// Stats summarizes one ingest run.
type Stats struct {
	Orders    int64
	LineItems int64
}

// Loader moves scraped permits into Postgres: orders are upserted by their
// import reference, line items are replaced wholesale per order so a re-scrape
// with corrected product tables wins cleanly.
type Loader struct {
	pool      db.Pool
	norm      *normalize.Normalizer
	batchSize int
}

// NewLoader creates a Loader. batchSize bounds how many orders move per
// upsert round-trip.
func NewLoader(pool db.Pool, n *normalize.Normalizer, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Loader{pool: pool, norm: n, batchSize: batchSize}
}

// Run ingests everything the scraper database holds.
func (l *Loader) Run(ctx context.Context, src *ScraperDB) (Stats, error) {
	permits, err := src.Permits(ctx)
	if err != nil {
		return Stats{}, err
	}
	products, err := src.Products(ctx)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for start := 0; start < len(permits); start += l.batchSize {
		end := start + l.batchSize
		if end > len(permits) {
			end = len(permits)
		}
		n, items, err := l.loadBatch(ctx, permits[start:end], products)
		if err != nil {
			return stats, err
		}
		stats.Orders += n
		stats.LineItems += items
	}

	zap.L().Info("ingest: run complete",
		zap.Int64("orders", stats.Orders),
		zap.Int64("line_items", stats.LineItems),
	)
	return stats, nil
}

func (l *Loader) loadBatch(ctx context.Context, permits []RawPermit, products map[string][]RawProduct) (int64, int64, error) {
	now := time.Now().UTC()

	orderRows := make([][]any, 0, len(permits))
	orderIDs := make([]string, 0, len(permits))
	var itemRows [][]any

	for _, p := range permits {
		o := parseOrder(p)
		orderIDs = append(orderIDs, o.ID)
		orderRows = append(orderRows, []any{o.ID, o.PermitNumber, o.AgentName,
			o.SupplierName, o.PortName, o.Amount, o.Currency, string(o.PermitType),
			string(o.Status), o.RequestedDate, now})

		for _, rp := range products[p.Ref] {
			li := parseLineItem(o.ID, rp)
			li.ID = uuid.New().String()
			li.NormGenericName = normalize.GenericName(li.GenericName)
			li.NormDosageForm = l.norm.DosageForm(li.DosageForm)
			li.NormDosageStrength = normalize.DosageStrength(li.DosageStrength)

			itemRows = append(itemRows, []any{li.ID, li.OrderID, li.GenericName,
				li.BrandName, li.Manufacturer, li.DosageForm, li.DosageStrength,
				li.Unit, li.Quantity, li.UnitPrice, li.LineTotal,
				li.NormGenericName, li.NormDosageForm, li.NormDosageStrength})
		}
	}

	n, err := db.BulkUpsert(ctx, l.pool, db.UpsertConfig{
		Table:        "orders",
		Columns:      orderColumns,
		ConflictKeys: []string{"id"},
	}, orderRows)
	if err != nil {
		return 0, 0, eris.Wrap(err, "ingest: upsert orders")
	}

	// Replace line items for the whole batch, then bulk-load the fresh rows.
	if _, err := l.pool.Exec(ctx,
		`DELETE FROM order_items WHERE order_id = ANY($1)`, orderIDs); err != nil {
		return 0, 0, eris.Wrap(err, "ingest: clear line items")
	}
	items, err := db.CopyFrom(ctx, l.pool, "order_items", lineItemColumns, itemRows)
	if err != nil {
		return 0, 0, eris.Wrap(err, "ingest: copy line items")
	}
	return n, items, nil
}
