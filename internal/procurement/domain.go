package procurement

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

// ErrInvalidState indicates the purchase order is not in the required state.
var ErrInvalidState = fmt.Errorf("procurement: %w", shared.ErrInvalidTransition)

// LineInput describes an ordered line. A zero UnitCost is filled from the item
// master.
type LineInput struct {
	SKU      string  `json:"sku" validate:"required"`
	Qty      int64   `json:"qty" validate:"gt=0,lte=1000000000000"`
	UnitCost float64 `json:"unit_cost" validate:"gte=0"`
}

// CreatePOInput describes a new purchase order.
type CreatePOInput struct {
	Outlet    string      `json:"outlet" validate:"required"`
	Items     []LineInput `json:"items" validate:"required,min=1,dive"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
}

// ListFilter narrows the purchase order list.
type ListFilter struct {
	Status orders.State
}
