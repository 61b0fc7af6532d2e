package canonical

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/efda-insights/permit-analytics/internal/db"
)

// capabilityProbe touches the normalized columns; on legacy schemas it errors
// and the detector settles on Legacy.
const capabilityProbe = `SELECT norm_generic_name, norm_dosage_form, norm_dosage_strength FROM order_items LIMIT 1`

// CapabilityDetector learns once per process whether the store carries the
// normalized product columns. The schema cannot change under a running
// process, so the result is memoized for the process lifetime; sync.Once
// single-flights concurrent first callers.
type CapabilityDetector struct {
	pool db.Pool

	once     sync.Once
	extended bool
}

// NewCapabilityDetector creates a detector over the given pool.
func NewCapabilityDetector(pool db.Pool) *CapabilityDetector {
	return &CapabilityDetector{pool: pool}
}

// Extended reports whether the normalized columns exist, probing the store on
// the first call only.
func (d *CapabilityDetector) Extended(ctx context.Context) bool {
	d.once.Do(func() {
		_, err := d.pool.Exec(ctx, capabilityProbe)
		d.extended = err == nil
		zap.L().Info("canonical: schema capability probed",
			zap.Bool("extended", d.extended),
		)
	})
	return d.extended
}

// ColumnSet resolves the column variant feeding the group key.
func (d *CapabilityDetector) ColumnSet(ctx context.Context) ColumnSet {
	if d.Extended(ctx) {
		return Extended
	}
	return Legacy
}
