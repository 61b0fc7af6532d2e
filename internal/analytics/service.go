// Package analytics computes the derived product metrics behind the dashboard:
// the aggregated product catalog, growth and decline rankings, unit-price
// spreads, monthly trends, and dual-period comparisons. Every call recomputes
// from the store; the only cached state is the schema capability flag owned by
// the canonical package.
package analytics

import (
	"context"
	"time"

	"github.com/efda-insights/permit-analytics/internal/canonical"
	"github.com/efda-insights/permit-analytics/internal/config"
	"github.com/efda-insights/permit-analytics/internal/db"
)

// OrderDates supplies the latest order date, which anchors rolling analytics
// windows. Satisfied by the store.
type OrderDates interface {
	MaxOrderDate(ctx context.Context) (*time.Time, error)
}

// Service issues aggregate queries against the orders/order_items relations.
// Requests run concurrently; there is no shared mutable state beyond the
// capability detector.
type Service struct {
	pool  db.Pool
	det   *canonical.CapabilityDetector
	dates OrderDates
	cfg   config.AnalyticsConfig
}

// New creates a Service over the given pool.
func New(pool db.Pool, det *canonical.CapabilityDetector, dates OrderDates, cfg config.AnalyticsConfig) *Service {
	return &Service{pool: pool, det: det, dates: dates, cfg: cfg}
}

// lineItemJoin is the only join the engine performs.
const lineItemJoin = ` FROM order_items i JOIN orders o ON o.id = i.order_id`

// productSearchColumns is the text surface a product search matches against.
var productSearchColumns = []string{"i.generic_name", "i.brand_name", "i.manufacturer"}

// dayAfter returns midnight of the day after t, in t's location. Upper date
// bounds are applied as `date < dayAfter(to)` so the bound day is included in
// full.
func dayAfter(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
}
