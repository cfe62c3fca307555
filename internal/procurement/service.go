package procurement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/shared"
	"github.com/odyssey-erp/stockflow/internal/store"
)

// RepositoryPort describes the state access used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, *store.Tx) error) error
	View(ctx context.Context, fn func(*store.Tx) error) error
}

// Service orchestrates the purchase order lifecycle.
type Service struct {
	repo        RepositoryPort
	clock       shared.Clock
	integration IntegrationHandler
}

// NewService constructs procurement service. integration may be nil.
func NewService(repo RepositoryPort, clock shared.Clock, integration IntegrationHandler) *Service {
	return &Service{repo: repo, clock: clock, integration: integration}
}

// Create registers a Draft purchase order. Unit costs left at zero are copied
// from the item master.
func (s *Service) Create(ctx context.Context, input CreatePOInput) (*orders.PurchaseOrder, error) {
	outlet := strings.TrimSpace(input.Outlet)
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: purchase order needs at least one line", shared.ErrValidation)
	}
	var po *orders.PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if !tx.Locations().IsOutlet(outlet) {
			return fmt.Errorf("%w: %q is not an outlet", shared.ErrValidation, outlet)
		}
		items := make([]orders.LineItem, 0, len(input.Items))
		for i, line := range input.Items {
			sku := strings.TrimSpace(line.SKU)
			if !tx.Items.Has(sku) {
				return fmt.Errorf("%w: line %d: unknown sku %q", shared.ErrValidation, i+1, sku)
			}
			if line.Qty <= 0 {
				return fmt.Errorf("%w: line %d: quantity must be positive", shared.ErrValidation, i+1)
			}
			if line.Qty > inventory.MaxQty {
				return fmt.Errorf("%w: line %d: quantity must not exceed %d", shared.ErrValidation, i+1, inventory.MaxQty)
			}
			cost := line.UnitCost
			if cost == 0 {
				cost = tx.Items.CostOr(sku, catalog.DefaultUnitCost)
			}
			if cost < catalog.MinUnitCost {
				return fmt.Errorf("%w: line %d: unit cost must be at least %.2f", shared.ErrValidation, i+1, catalog.MinUnitCost)
			}
			items = append(items, orders.LineItem{SKU: sku, Qty: line.Qty, UnitCost: cost})
		}
		now := s.clock.OrNow(input.CreatedAt)
		po = &orders.PurchaseOrder{
			ID:        tx.Orders.NextPOID(),
			Outlet:    outlet,
			Items:     items,
			Status:    orders.Active(orders.StateDraft),
			CreatedAt: now,
			UpdatedAt: now,
		}
		tx.Orders.PutPO(po)
		po = po.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// Submit moves a Draft order to Requesting.
func (s *Service) Submit(ctx context.Context, id string) (*orders.PurchaseOrder, error) {
	return s.transition(ctx, id, orders.StateDraft, func(_ *store.Tx, po *orders.PurchaseOrder) error {
		po.Status = orders.Active(orders.StateRequesting)
		po.UpdatedAt = s.clock.OrNow(nil)
		return nil
	})
}

// Approve moves a Requesting order to Receiving. The approval date is stored
// in CreatedAt.
func (s *Service) Approve(ctx context.Context, id string, approvedAt *time.Time) (*orders.PurchaseOrder, error) {
	return s.transition(ctx, id, orders.StateRequesting, func(_ *store.Tx, po *orders.PurchaseOrder) error {
		at := s.clock.OrNow(approvedAt)
		po.Status = orders.Active(orders.StateReceiving)
		po.CreatedAt = at
		po.UpdatedAt = at
		return nil
	})
}

// Receive books every line into the outlet ledger, writes one GRN cost record
// per line and a single GRN document, and completes the order.
func (s *Service) Receive(ctx context.Context, id string, receivedAt *time.Time) (*orders.PurchaseOrder, error) {
	var evt GRNPostedEvent
	po, err := s.transition(ctx, id, orders.StateReceiving, func(tx *store.Tx, po *orders.PurchaseOrder) error {
		at := s.clock.OrNow(receivedAt)
		lines := make([]documents.Line, 0, len(po.Items))
		for _, it := range po.Items {
			if _, err := tx.Ledger.Receive(po.Outlet, it.SKU, it.Qty, it.UnitCost); err != nil {
				return fmt.Errorf("%w: %w", shared.ErrValidation, err)
			}
			lines = append(lines, documents.NewLine(it.SKU, it.Qty, it.UnitCost))
		}
		doc, err := tx.IssueDocument(documents.Document{
			Type:      documents.TypeGRN,
			Timestamp: at,
			Ref:       po.ID,
			Location:  po.Outlet,
			Items:     lines,
		})
		if err != nil {
			return err
		}
		evt = GRNPostedEvent{POID: po.ID, DocID: doc.DocID, Outlet: po.Outlet, ReceivedAt: at}
		for _, it := range po.Items {
			tx.Journal(audit.Record{
				Timestamp: at,
				Type:      audit.TypeGRN,
				SKU:       it.SKU,
				Qty:       it.Qty,
				UnitCost:  it.UnitCost,
				Location:  po.Outlet,
				DocID:     doc.DocID,
				Ref:       po.ID,
			})
			evt.Lines = append(evt.Lines, GRNLineEvent{SKU: it.SKU, Qty: it.Qty, UnitCost: it.UnitCost})
		}
		po.Documents = append(po.Documents, doc.DocID)
		po.Status = orders.Active(orders.StateCompleted)
		po.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.integration != nil {
		if err := s.integration.HandleGRNPosted(ctx, evt); err != nil {
			return po, err
		}
	}
	return po, nil
}

// Get returns a purchase order.
func (s *Service) Get(ctx context.Context, id string) (*orders.PurchaseOrder, error) {
	var po *orders.PurchaseOrder
	err := s.repo.View(ctx, func(tx *store.Tx) error {
		found, err := tx.Orders.PO(id)
		if err != nil {
			return err
		}
		po = found.Clone()
		return nil
	})
	return po, err
}

// List returns purchase orders in creation order.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*orders.PurchaseOrder, error) {
	var out []*orders.PurchaseOrder
	err := s.repo.View(ctx, func(tx *store.Tx) error {
		for _, po := range tx.Orders.PurchaseOrders() {
			if filter.Status != "" && !po.Status.Is(filter.Status) {
				continue
			}
			out = append(out, po)
		}
		return nil
	})
	return out, err
}

func (s *Service) transition(ctx context.Context, id string, from orders.State, fn func(*store.Tx, *orders.PurchaseOrder) error) (*orders.PurchaseOrder, error) {
	var out *orders.PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		po, err := tx.Orders.PO(id)
		if err != nil {
			return err
		}
		if !po.Status.Is(from) {
			return fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidState, po.ID, po.Status, from)
		}
		if err := fn(tx, po); err != nil {
			return err
		}
		out = po.Clone()
		return nil
	})
	return out, err
}
