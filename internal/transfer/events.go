package transfer

import (
	"context"
	"time"

	"github.com/odyssey-erp/stockflow/internal/inventory"
)

// ShortageEvent is emitted when a fulfil line fails for lack of source stock.
type ShortageEvent struct {
	TOID   string
	Reason inventory.InsufficientStockError
	At     time.Time
}

// IntegrationHandler receives transfer domain events.
type IntegrationHandler interface {
	HandleTransferShortage(ctx context.Context, evt ShortageEvent) error
}
