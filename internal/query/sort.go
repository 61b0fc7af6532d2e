package query

import "strings"

// SortSpec is a resolved, safe ORDER BY target.
type SortSpec struct {
	Column    string
	Direction string // "ASC" or "DESC"
}

// OrderBy renders the spec as an ORDER BY fragment.
func (s SortSpec) OrderBy() string {
	return " ORDER BY " + s.Column + " " + s.Direction
}

// OrderSortColumns maps logical sort names on the permit list to physical
// columns. Anything outside this map falls back to the default.
var OrderSortColumns = map[string]string{
	"date":     "o.requested_date",
	"amount":   "o.amount",
	"agent":    "o.agent_name",
	"supplier": "o.supplier_name",
	"port":     "o.port_name",
	"status":   "o.status",
	"permit":   "o.permit_number",
}

// ProductSortColumns maps logical sort names on the aggregated product list to
// the aggregate output columns.
var ProductSortColumns = map[string]string{
	"orders":    "order_count",
	"brands":    "brand_count",
	"suppliers": "supplier_count",
	"quantity":  "total_quantity",
	"avg_price": "avg_price",
	"value":     "total_value",
	"name":      "generic_name",
}

// ResolveSort maps a requested sortBy/sortDir through the allow-list. An
// unrecognized sortBy silently falls back to defaultBy: sort order is a UX
// preference, never a reason to fail a request, and the raw value must never
// reach query text.
func ResolveSort(allowed map[string]string, sortBy, sortDir, defaultBy, defaultDir string) SortSpec {
	col, ok := allowed[sortBy]
	if !ok {
		col = allowed[defaultBy]
		sortDir = defaultDir
	}

	dir := strings.ToUpper(sortDir)
	if dir != "ASC" && dir != "DESC" {
		dir = strings.ToUpper(defaultDir)
		if dir != "ASC" && dir != "DESC" {
			dir = "DESC"
		}
	}
	return SortSpec{Column: col, Direction: dir}
}
