package ingest

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/efda-insights/permit-analytics/internal/model"
)

// The portal renders its detail tables with inconsistent header labels, so
// every field is resolved through a key-preference list rather than a fixed
// schema. First non-empty match wins.
var (
	permitNumberKeys = []string{"permit_number", "permit_no", "permit", "reference", "import_reference"}
	agentKeys        = []string{"agent_name", "agent", "importer_name", "importer", "applicant"}
	supplierKeys     = []string{"supplier_name", "supplier", "vendor", "exporter"}
	portKeys         = []string{"port_name", "port_of_entry", "port", "entry_port"}
	amountKeys       = []string{"amount", "total_amount", "total_value", "value"}
	currencyKeys     = []string{"currency", "currency_code"}
	typeKeys         = []string{"permit_type", "type", "category"}
	statusKeys       = []string{"status", "permit_status"}
	dateKeys         = []string{"requested_date", "request_date", "submitted_at", "date"}

	productNameKeys = []string{"product_name", "generic_name", "product", "item_name"}
	brandKeys       = []string{"brand_name", "brand", "trade_name"}
	makerKeys       = []string{"manufacturer", "manufacturer_name", "maker"}
	formKeys        = []string{"dosage_form", "form"}
	strengthKeys    = []string{"dosage_strength", "strength"}
	unitKeys        = []string{"unit", "quantity_unit", "uom"}
	quantityKeys    = []string{"quantity", "qty"}
	unitPriceKeys   = []string{"unit_price", "price"}
	lineTotalKeys   = []string{"line_total", "total", "total_price"}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
}

// textValue resolves the first non-empty string under the preferred keys,
// NFC-normalized and trimmed. Scraped text arrives in mixed Unicode forms;
// normalizing here keeps canonical key bytes (and therefore slugs) stable
// across scrape runs.
func textValue(payload map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			s = strings.TrimSpace(norm.NFC.String(s))
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// numberValue resolves the first parseable number. Scraped amounts carry
// thousands separators and stray currency text.
func numberValue(payload map[string]any, keys []string) float64 {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case string:
			if f, ok := parseNumber(n); ok {
				return f
			}
		}
	}
	return 0
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	return f, err == nil
}

func dateValue(payload map[string]any, keys []string) time.Time {
	raw := textValue(payload, keys)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func permitTypeValue(payload map[string]any) model.PermitType {
	raw := strings.ToLower(textValue(payload, typeKeys))
	if strings.Contains(raw, "device") {
		return model.PermitDevice
	}
	return model.PermitMedicine
}

func statusValue(payload map[string]any) model.OrderStatus {
	switch strings.ToLower(textValue(payload, statusKeys)) {
	case "approved", "issued", "granted":
		return model.StatusApproved
	case "rejected", "denied":
		return model.StatusRejected
	case "expired":
		return model.StatusExpired
	default:
		return model.StatusRequested
	}
}

// parseOrder maps one scraped permit payload onto the orders schema. The
// import reference doubles as the stable order id so re-ingesting is an
// upsert, not a duplicate.
func parseOrder(p RawPermit) model.Order {
	number := textValue(p.Payload, permitNumberKeys)
	if number == "" {
		number = p.Ref
	}
	return model.Order{
		ID:            p.Ref,
		PermitNumber:  number,
		AgentName:     textValue(p.Payload, agentKeys),
		SupplierName:  textValue(p.Payload, supplierKeys),
		PortName:      textValue(p.Payload, portKeys),
		Amount:        numberValue(p.Payload, amountKeys),
		Currency:      textValue(p.Payload, currencyKeys),
		PermitType:    permitTypeValue(p.Payload),
		Status:        statusValue(p.Payload),
		RequestedDate: dateValue(p.Payload, dateKeys),
	}
}

// parseLineItem maps one scraped product row. Normalized fields are filled by
// the Loader, which owns the normalizer.
func parseLineItem(orderID string, p RawProduct) model.LineItem {
	quantity := numberValue(p.Payload, quantityKeys)
	unitPrice := numberValue(p.Payload, unitPriceKeys)
	lineTotal := numberValue(p.Payload, lineTotalKeys)
	if lineTotal == 0 && quantity > 0 && unitPrice > 0 {
		lineTotal = quantity * unitPrice
	}
	return model.LineItem{
		OrderID:        orderID,
		GenericName:    textValue(p.Payload, productNameKeys),
		BrandName:      textValue(p.Payload, brandKeys),
		Manufacturer:   textValue(p.Payload, makerKeys),
		DosageForm:     textValue(p.Payload, formKeys),
		DosageStrength: textValue(p.Payload, strengthKeys),
		Unit:           textValue(p.Payload, unitKeys),
		Quantity:       quantity,
		UnitPrice:      unitPrice,
		LineTotal:      lineTotal,
	}
}
