package procurement

import "context"

// IntegrationHandler receives procurement domain events.
type IntegrationHandler interface {
	HandleGRNPosted(ctx context.Context, evt GRNPostedEvent) error
}
