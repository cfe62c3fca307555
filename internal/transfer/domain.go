package transfer

import (
	"fmt"
	"time"

	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

// ErrInvalidState indicates the transfer order is not in the required state.
var ErrInvalidState = fmt.Errorf("transfer: %w", shared.ErrInvalidTransition)

// LineInput describes a requested line.
type LineInput struct {
	SKU string `json:"sku" validate:"required"`
	Qty int64  `json:"qty" validate:"gt=0,lte=1000000000000"`
}

// CreateTOInput describes a new transfer order.
type CreateTOInput struct {
	Source      string      `json:"source" validate:"required"`
	Destination string      `json:"destination" validate:"required"`
	Items       []LineInput `json:"items" validate:"required,min=1,dive"`
	CreatedAt   *time.Time  `json:"created_at,omitempty"`
}

// ListFilter narrows the transfer order list.
type ListFilter struct {
	Status orders.State
}

// FulfillResult reports the outcome of a fulfill call line by line.
type FulfillResult struct {
	Order    *orders.TransferOrder              `json:"order"`
	DocID    string                             `json:"doc_id,omitempty"`
	Shipped  map[string]int64                   `json:"shipped"`
	Shortage []inventory.InsufficientStockError `json:"shortage,omitempty"`
}
