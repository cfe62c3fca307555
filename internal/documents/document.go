package documents

import (
	"errors"
	"time"
)

// Type identifies the document kind.
type Type string

const (
	TypeGRN Type = "GRN"
	TypeDO  Type = "DO"
	TypeTN  Type = "TN"
	TypeRN  Type = "RN"
)

// Types lists every document kind in display order.
var Types = []Type{TypeGRN, TypeDO, TypeTN, TypeRN}

// Title is the heading printed on the rendered document.
func (t Type) Title() string {
	switch t {
	case TypeGRN:
		return "Goods Received Note"
	case TypeDO:
		return "Delivery Order"
	case TypeTN:
		return "Transfer Note"
	case TypeRN:
		return "Return Note"
	default:
		return string(t)
	}
}

// Valid reports whether t is a known document kind.
func (t Type) Valid() bool {
	switch t {
	case TypeGRN, TypeDO, TypeTN, TypeRN:
		return true
	}
	return false
}

// Line is one item row of a document.
type Line struct {
	SKU       string  `json:"sku"`
	Qty       int64   `json:"qty"`
	UnitCost  float64 `json:"unit_cost"`
	TotalCost float64 `json:"total_cost"`
	Reason    string  `json:"reason,omitempty"`
}

// NewLine builds a line with its total cost.
func NewLine(sku string, qty int64, unitCost float64) Line {
	return Line{SKU: sku, Qty: qty, UnitCost: unitCost, TotalCost: float64(qty) * unitCost}
}

// Document is an immutable record of a stock movement.
type Document struct {
	DocID     string    `json:"doc_id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Ref       string    `json:"ref,omitempty"`
	// Location is the outlet for GRN, the source for DO, the destination for TN
	// and the returning outlet for RN.
	Location  string `json:"location"`
	Warehouse string `json:"warehouse,omitempty"`
	Items     []Line `json:"items"`
}

// Total sums the document lines.
func (d Document) Total() float64 {
	var total float64
	for _, it := range d.Items {
		total += it.TotalCost
	}
	return total
}

// ErrEmptyDocument is returned when a document has no lines.
var ErrEmptyDocument = errors.New("documents: document has no lines")
