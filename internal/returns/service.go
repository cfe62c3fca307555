// Package returns implements outlet to warehouse stock returns.
package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/shared"
	"github.com/odyssey-erp/stockflow/internal/store"
)

// ItemInput is one returned SKU.
type ItemInput struct {
	SKU    string `json:"sku" validate:"required"`
	Qty    int64  `json:"qty" validate:"gt=0,lte=1000000000000"`
	Reason string `json:"reason" validate:"required"`
}

// ReturnInput describes a stock return. An empty Warehouse defaults to the
// configured returns warehouse.
type ReturnInput struct {
	Outlet     string      `json:"outlet" validate:"required"`
	Warehouse  string      `json:"warehouse"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
	ReturnedAt *time.Time  `json:"returned_at,omitempty"`
}

// Result summarises a processed return.
type Result struct {
	DocID     string           `json:"doc_id"`
	Outlet    string           `json:"outlet"`
	Warehouse string           `json:"warehouse"`
	Lines     []documents.Line `json:"lines"`
	At        time.Time        `json:"at"`
}

// RepositoryPort describes the state access used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, *store.Tx) error) error
}

// Service processes stock returns.
type Service struct {
	repo  RepositoryPort
	clock shared.Clock
}

// NewService constructs the returns service.
func NewService(repo RepositoryPort, clock shared.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// Process deducts each item from the outlet, floored at zero, and books it
// into the returns ledger at the outlet's pre-deduction cost. One RETURN cost
// record per item and a single RN document are written.
func (s *Service) Process(ctx context.Context, input ReturnInput) (Result, error) {
	outlet := strings.TrimSpace(input.Outlet)
	warehouse := strings.TrimSpace(input.Warehouse)
	if len(input.Items) == 0 {
		return Result{}, fmt.Errorf("%w: return needs at least one item", shared.ErrValidation)
	}
	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		locations := tx.Locations()
		if warehouse == "" {
			warehouse = locations.ReturnsWarehouse()
		}
		if !locations.IsOutlet(outlet) {
			return fmt.Errorf("%w: %q is not an outlet", shared.ErrValidation, outlet)
		}
		if !locations.IsWarehouse(warehouse) {
			return fmt.Errorf("%w: %q is not a warehouse", shared.ErrValidation, warehouse)
		}
		for i, it := range input.Items {
			if !tx.Items.Has(strings.TrimSpace(it.SKU)) {
				return fmt.Errorf("%w: item %d: unknown sku %q", shared.ErrValidation, i+1, it.SKU)
			}
			if it.Qty <= 0 {
				return fmt.Errorf("%w: item %d: quantity must be positive", shared.ErrValidation, i+1)
			}
			if it.Qty > inventory.MaxQty {
				return fmt.Errorf("%w: item %d: quantity must not exceed %d", shared.ErrValidation, i+1, inventory.MaxQty)
			}
			if strings.TrimSpace(it.Reason) == "" {
				return fmt.Errorf("%w: item %d: reason is required", shared.ErrValidation, i+1)
			}
		}

		at := s.clock.OrNow(input.ReturnedAt)
		lines := make([]documents.Line, 0, len(input.Items))
		for _, it := range input.Items {
			sku := strings.TrimSpace(it.SKU)
			reason := strings.TrimSpace(it.Reason)
			unitCost := catalog.DefaultUnitCost
			if before, ok := tx.Ledger.IssueFloor(outlet, sku, it.Qty); ok {
				unitCost = before.UnitCost
			}
			if _, err := tx.Returns.Add(warehouse, sku, it.Qty, unitCost, reason); err != nil {
				return fmt.Errorf("%w: %w", shared.ErrValidation, err)
			}
			line := documents.NewLine(sku, it.Qty, unitCost)
			line.Reason = reason
			lines = append(lines, line)
		}
		doc, err := tx.IssueDocument(documents.Document{
			Type:      documents.TypeRN,
			Timestamp: at,
			Location:  outlet,
			Warehouse: warehouse,
			Items:     lines,
		})
		if err != nil {
			return err
		}
		for _, line := range lines {
			tx.Journal(audit.Record{
				Timestamp: at,
				Type:      audit.TypeReturn,
				SKU:       line.SKU,
				Qty:       line.Qty,
				UnitCost:  line.UnitCost,
				From:      outlet,
				To:        warehouse,
				Reason:    line.Reason,
				DocID:     doc.DocID,
			})
		}
		result = Result{DocID: doc.DocID, Outlet: outlet, Warehouse: warehouse, Lines: lines, At: at}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
