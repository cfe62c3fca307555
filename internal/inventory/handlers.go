package inventory

import "context"

// IntegrationHandler receives inventory events for downstream consumers.
type IntegrationHandler interface {
	HandleBalanceOverwritten(ctx context.Context, evt BalanceOverwrittenEvent) error
}
