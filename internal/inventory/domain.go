package inventory

import (
	"errors"
	"fmt"
)

// Key addresses a ledger entry.
type Key struct {
	Location string `json:"location"`
	SKU      string `json:"sku"`
}

// Balance summarises stock at a location per SKU.
type Balance struct {
	Location string  `json:"location"`
	SKU      string  `json:"sku"`
	Qty      int64   `json:"qty"`
	UnitCost float64 `json:"unit_cost"`
}

// TotalCost is the carried value of the balance.
func (b Balance) TotalCost() float64 {
	return float64(b.Qty) * b.UnitCost
}

// ReturnBalance tracks returned stock held at a warehouse.
type ReturnBalance struct {
	Warehouse string   `json:"warehouse"`
	SKU       string   `json:"sku"`
	Qty       int64    `json:"qty"`
	UnitCost  float64  `json:"unit_cost"`
	Reasons   []string `json:"reasons"`
}

// AdjustmentInput describes a manual balance overwrite.
type AdjustmentInput struct {
	Location string
	SKU      string
	Qty      int64
	UnitCost float64
}

// BalanceFilter narrows the balance view.
type BalanceFilter struct {
	Location string
	SKU      string
}

// ErrNegativeStock triggered when movement would result negative qty.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInvalidUnitCost indicates invalid cost value.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")

// MaxQty caps a single balance and any single movement.
const MaxQty int64 = 1_000_000_000_000

// ErrQuantityOverflow is returned when a movement would push a balance past MaxQty.
var ErrQuantityOverflow = fmt.Errorf("inventory: quantity exceeds %d", MaxQty)

// InsufficientStockError carries the shortfall of a rejected deduction.
type InsufficientStockError struct {
	Location  string `json:"location"`
	SKU       string `json:"sku"`
	Required  int64  `json:"required"`
	Available int64  `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for %s at %s: required %d, available %d", e.SKU, e.Location, e.Required, e.Available)
}

// Unwrap lets callers match ErrNegativeStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrNegativeStock
}
