package model

// ProductRow is one row per distinct canonical product group, recomputed on
// every query.
type ProductRow struct {
	Slug           string  `json:"slug"`
	GenericName    string  `json:"generic_name"`
	DosageForm     string  `json:"dosage_form"`
	DosageStrength string  `json:"dosage_strength"`
	OrderCount     int64   `json:"order_count"`
	BrandCount     int64   `json:"brand_count"`
	SupplierCount  int64   `json:"supplier_count"`
	TotalQuantity  float64 `json:"total_quantity"`
	AvgPrice       float64 `json:"avg_price"`
	TotalValue     float64 `json:"total_value"`
}

// GrowthRow holds recent- and prior-period order counts for one product group
// plus the derived growth percentage. Ephemeral, computed per request.
type GrowthRow struct {
	Slug           string  `json:"slug"`
	GenericName    string  `json:"generic_name"`
	DosageForm     string  `json:"dosage_form"`
	DosageStrength string  `json:"dosage_strength"`
	RecentOrders   int64   `json:"recent_orders"`
	PriorOrders    int64   `json:"prior_orders"`
	GrowthPct      int     `json:"growth_pct"`
	Ratio          float64 `json:"-"`
}

// SpreadRow holds the unit-price spread for one product group.
type SpreadRow struct {
	Slug           string  `json:"slug"`
	GenericName    string  `json:"generic_name"`
	DosageForm     string  `json:"dosage_form"`
	DosageStrength string  `json:"dosage_strength"`
	OrderCount     int64   `json:"order_count"`
	MinPrice       float64 `json:"min_price"`
	AvgPrice       float64 `json:"avg_price"`
	MaxPrice       float64 `json:"max_price"`
	SpreadPct      int     `json:"spread_pct"`
}

// RankedRow is one entity (agent, manufacturer, product group, category) with
// its aggregate order count and value inside a single time window.
type RankedRow struct {
	Key        string  `json:"key"`
	Label      string  `json:"label"`
	OrderCount int64   `json:"order_count"`
	TotalValue float64 `json:"total_value"`
}

// MonthlyPoint is one month of a time series. Month is the calendar month
// index (0-11) so two different years align on the same axis position.
type MonthlyPoint struct {
	Month      int      `json:"month"`
	OrderCount int64    `json:"order_count"`
	TotalValue float64  `json:"total_value"`
	AvgAmount  *float64 `json:"avg_amount"`
}

// ComparisonRow pairs one key's values from two independently computed result
// sets. Numeric fields default to zero for the side that lacks the key; trend
// fields stay null so charts render gaps instead of false zeros.
type ComparisonRow struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	AOrderCount int64    `json:"a_order_count"`
	ATotalValue float64  `json:"a_total_value"`
	AAvgAmount  *float64 `json:"a_avg_amount"`
	BOrderCount int64    `json:"b_order_count"`
	BTotalValue float64  `json:"b_total_value"`
	BAvgAmount  *float64 `json:"b_avg_amount"`
}
