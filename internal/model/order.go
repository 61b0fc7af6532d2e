// Package model defines the persisted entities and typed analytics rows.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// PermitType classifies an import permit.
type PermitType string

const (
	PermitMedicine PermitType = "medicine"
	PermitDevice   PermitType = "medical_device"
)

// ParsePermitType converts a string into a PermitType.
func ParsePermitType(s string) (PermitType, error) {
	switch s {
	case "medicine":
		return PermitMedicine, nil
	case "medical_device", "device":
		return PermitDevice, nil
	default:
		return "", eris.Errorf("unknown permit type: %q (valid: medicine, medical_device)", s)
	}
}

// OrderStatus is the permit lifecycle status reported by the registry.
type OrderStatus string

const (
	StatusRequested OrderStatus = "requested"
	StatusApproved  OrderStatus = "approved"
	StatusRejected  OrderStatus = "rejected"
	StatusExpired   OrderStatus = "expired"
)

// Order is one import permit. Orders are immutable once ingested; only the
// ingest path writes them.
type Order struct {
	ID            string      `json:"id"`
	PermitNumber  string      `json:"permit_number"`
	AgentName     string      `json:"agent_name"`
	SupplierName  string      `json:"supplier_name"`
	PortName      string      `json:"port_name"`
	Amount        float64     `json:"amount"`
	Currency      string      `json:"currency"`
	PermitType    PermitType  `json:"permit_type"`
	Status        OrderStatus `json:"status"`
	RequestedDate time.Time   `json:"requested_date"`
	CreatedAt     time.Time   `json:"created_at"`
}

// LineItem is one product entry on an order. The Norm* fields hold the
// normalized text produced at ingest; on legacy databases they are absent and
// grouping falls back to the raw columns.
type LineItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"order_id"`
	GenericName    string  `json:"generic_name"`
	BrandName      string  `json:"brand_name"`
	Manufacturer   string  `json:"manufacturer"`
	DosageForm     string  `json:"dosage_form"`
	DosageStrength string  `json:"dosage_strength"`
	Unit           string  `json:"unit"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	LineTotal      float64 `json:"line_total"`

	NormGenericName    string `json:"norm_generic_name,omitempty"`
	NormDosageForm     string `json:"norm_dosage_form,omitempty"`
	NormDosageStrength string `json:"norm_dosage_strength,omitempty"`
}
