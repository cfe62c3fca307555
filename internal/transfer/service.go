package transfer

import (
	"context"
	"errors"
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

// Service orchestrates the transfer order lifecycle.
type Service struct {
	repo        RepositoryPort
	clock       shared.Clock
	integration IntegrationHandler
}

// NewService constructs transfer service. integration may be nil.
func NewService(repo RepositoryPort, clock shared.Clock, integration IntegrationHandler) *Service {
	return &Service{repo: repo, clock: clock, integration: integration}
}

// Create registers a Draft transfer order.
func (s *Service) Create(ctx context.Context, input CreateTOInput) (*orders.TransferOrder, error) {
	source := strings.TrimSpace(input.Source)
	destination := strings.TrimSpace(input.Destination)
	if source == destination {
		return nil, fmt.Errorf("%w: source and destination must differ", shared.ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: transfer order needs at least one line", shared.ErrValidation)
	}
	var to *orders.TransferOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		locations := tx.Locations()
		if !locations.Known(source) {
			return fmt.Errorf("%w: unknown source %q", shared.ErrValidation, source)
		}
		if !locations.Known(destination) {
			return fmt.Errorf("%w: unknown destination %q", shared.ErrValidation, destination)
		}
		seen := make(map[string]struct{}, len(input.Items))
		items := make([]orders.LineItem, 0, len(input.Items))
		for i, line := range input.Items {
			sku := strings.TrimSpace(line.SKU)
			if !tx.Items.Has(sku) {
				return fmt.Errorf("%w: line %d: unknown sku %q", shared.ErrValidation, i+1, sku)
			}
			if _, dup := seen[sku]; dup {
				return fmt.Errorf("%w: line %d: duplicate sku %q", shared.ErrValidation, i+1, sku)
			}
			seen[sku] = struct{}{}
			if line.Qty <= 0 {
				return fmt.Errorf("%w: line %d: quantity must be positive", shared.ErrValidation, i+1)
			}
			if line.Qty > inventory.MaxQty {
				return fmt.Errorf("%w: line %d: quantity must not exceed %d", shared.ErrValidation, i+1, inventory.MaxQty)
			}
			items = append(items, orders.LineItem{SKU: sku, Qty: line.Qty})
		}
		now := s.clock.OrNow(input.CreatedAt)
		created := &orders.TransferOrder{
			ID:          tx.Orders.NextTOID(),
			Source:      source,
			Destination: destination,
			Items:       items,
			Status:      orders.Active(orders.StateDraft),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		tx.Orders.PutTO(created)
		to = created.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return to, nil
}

// Submit moves a Draft order to Requesting.
func (s *Service) Submit(ctx context.Context, id string) (*orders.TransferOrder, error) {
	return s.transition(ctx, id, orders.StateDraft, func(_ *store.Tx, to *orders.TransferOrder) error {
		to.Status = orders.Active(orders.StateRequesting)
		to.UpdatedAt = s.clock.OrNow(nil)
		return nil
	})
}

// Approve moves a Requesting order to Processing and zeroes the progress of
// every line. The approval date is stored in CreatedAt.
func (s *Service) Approve(ctx context.Context, id string, approvedAt *time.Time) (*orders.TransferOrder, error) {
	return s.transition(ctx, id, orders.StateRequesting, func(_ *store.Tx, to *orders.TransferOrder) error {
		at := s.clock.OrNow(approvedAt)
		to.ResetProgress()
		to.Status = orders.Active(orders.StateProcessing)
		to.CreatedAt = at
		to.UpdatedAt = at
		return nil
	})
}

// Fulfill ships stock from the source. Lines short of stock are skipped and
// flip the order to the failed status; the remaining lines still ship. When at
// least one line shipped, a DO is issued and the order moves to Receiving.
// Fulfilment is not written to the cost history.
//
// Shortage hooks run after the commit. A non-empty result returned together
// with an error means the fulfilment was committed and only a hook failed.
func (s *Service) Fulfill(ctx context.Context, id string, qtyBySKU map[string]int64, fulfilledAt *time.Time) (FulfillResult, error) {
	var result FulfillResult
	var shortages []ShortageEvent
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		to, err := tx.Orders.TO(id)
		if err != nil {
			return err
		}
		if !to.Status.Is(orders.StateProcessing) {
			return fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidState, to.ID, to.Status, orders.StateProcessing)
		}
		if err := validateQuantities(to, qtyBySKU, to.RemainingToFulfill, "fulfil"); err != nil {
			return err
		}
		at := s.clock.OrNow(fulfilledAt)
		result = FulfillResult{Shipped: make(map[string]int64)}
		var lines []documents.Line
		for _, it := range to.Items {
			qty := qtyBySKU[it.SKU]
			if qty <= 0 {
				continue
			}
			unitCost := tx.Ledger.UnitCostOr(to.Source, it.SKU, catalog.DefaultUnitCost)
			if _, err := tx.Ledger.Issue(to.Source, it.SKU, qty); err != nil {
				var short *inventory.InsufficientStockError
				if !errors.As(err, &short) {
					return err
				}
				to.Status = orders.Failed(*short)
				result.Shortage = append(result.Shortage, *short)
				shortages = append(shortages, ShortageEvent{TOID: to.ID, Reason: *short, At: at})
				continue
			}
			to.Fulfilled[it.SKU] += qty
			result.Shipped[it.SKU] = qty
			lines = append(lines, documents.NewLine(it.SKU, qty, unitCost))
		}
		if len(lines) > 0 {
			doc, err := tx.IssueDocument(documents.Document{
				Type:      documents.TypeDO,
				Timestamp: at,
				Ref:       to.ID,
				Location:  to.Source,
				Items:     lines,
			})
			if err != nil {
				return err
			}
			to.Documents = append(to.Documents, doc.DocID)
			to.Status = orders.Active(orders.StateReceiving)
			result.DocID = doc.DocID
		}
		to.UpdatedAt = at
		result.Order = to.Clone()
		return nil
	})
	if err != nil {
		return FulfillResult{}, err
	}
	if s.integration != nil {
		for _, evt := range shortages {
			if err := s.integration.HandleTransferShortage(ctx, evt); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

// Receive books shipped stock into the destination at the source's live unit
// cost, writes one TN cost record per line and a single TN document. The order
// completes once every line is received in full, otherwise it returns to
// Processing. A failed order still accepts receipts for stock already shipped
// and keeps its failed status.
func (s *Service) Receive(ctx context.Context, id string, qtyBySKU map[string]int64, receivedAt *time.Time) (*orders.TransferOrder, error) {
	var out *orders.TransferOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		to, err := tx.Orders.TO(id)
		if err != nil {
			return err
		}
		// a partial receipt returns the order to Processing, and a later
		// shortage can fail it, while shipped stock is still in transit
		failed := to.Status.IsFailed()
		switch {
		case to.Status.Is(orders.StateReceiving), to.Status.Is(orders.StateProcessing):
		case failed && to.InTransit():
		default:
			return fmt.Errorf("%w: %s is %s, expected %s or %s with stock in transit",
				ErrInvalidState, to.ID, to.Status, orders.StateReceiving, orders.StateProcessing)
		}
		if err := validateQuantities(to, qtyBySKU, to.RemainingToReceive, "receive"); err != nil {
			return err
		}
		at := s.clock.OrNow(receivedAt)
		type received struct {
			sku      string
			qty      int64
			unitCost float64
		}
		var booked []received
		var lines []documents.Line
		for _, it := range to.Items {
			qty := qtyBySKU[it.SKU]
			if qty <= 0 {
				continue
			}
			unitCost := tx.Ledger.UnitCostOr(to.Source, it.SKU, catalog.DefaultUnitCost)
			if _, err := tx.Ledger.Receive(to.Destination, it.SKU, qty, unitCost); err != nil {
				return fmt.Errorf("%w: %w", shared.ErrValidation, err)
			}
			to.Received[it.SKU] += qty
			booked = append(booked, received{sku: it.SKU, qty: qty, unitCost: unitCost})
			lines = append(lines, documents.NewLine(it.SKU, qty, unitCost))
		}
		doc, err := tx.IssueDocument(documents.Document{
			Type:      documents.TypeTN,
			Timestamp: at,
			Ref:       to.ID,
			Location:  to.Destination,
			Items:     lines,
		})
		if err != nil {
			return err
		}
		for _, b := range booked {
			tx.Journal(audit.Record{
				Timestamp: at,
				Type:      audit.TypeTN,
				SKU:       b.sku,
				Qty:       b.qty,
				UnitCost:  b.unitCost,
				Location:  to.Destination,
				DocID:     doc.DocID,
				Ref:       to.ID,
			})
		}
		to.Documents = append(to.Documents, doc.DocID)
		switch {
		case to.FullyReceived():
			to.Status = orders.Active(orders.StateCompleted)
		case failed:
			// stays failed; in-transit stock is booked but nothing more ships
		default:
			to.Status = orders.Active(orders.StateProcessing)
		}
		to.UpdatedAt = at
		out = to.Clone()
		return nil
	})
	return out, err
}

// Get returns a transfer order.
func (s *Service) Get(ctx context.Context, id string) (*orders.TransferOrder, error) {
	var to *orders.TransferOrder
	err := s.repo.View(ctx, func(tx *store.Tx) error {
		found, err := tx.Orders.TO(id)
		if err != nil {
			return err
		}
		to = found.Clone()
		return nil
	})
	return to, err
}

// List returns transfer orders in creation order.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*orders.TransferOrder, error) {
	var out []*orders.TransferOrder
	err := s.repo.View(ctx, func(tx *store.Tx) error {
		for _, to := range tx.Orders.TransferOrders() {
			if filter.Status != "" && !to.Status.Is(filter.Status) {
				continue
			}
			out = append(out, to)
		}
		return nil
	})
	return out, err
}

func (s *Service) transition(ctx context.Context, id string, from orders.State, fn func(*store.Tx, *orders.TransferOrder) error) (*orders.TransferOrder, error) {
	var out *orders.TransferOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		to, err := tx.Orders.TO(id)
		if err != nil {
			return err
		}
		if !to.Status.Is(from) {
			return fmt.Errorf("%w: %s is %s, expected %s", ErrInvalidState, to.ID, to.Status, from)
		}
		if err := fn(tx, to); err != nil {
			return err
		}
		out = to.Clone()
		return nil
	})
	return out, err
}

// validateQuantities rejects unknown SKUs, negative quantities, quantities
// above the remaining allowance and calls that move nothing.
func validateQuantities(to *orders.TransferOrder, qtyBySKU map[string]int64, remaining func(string) int64, action string) error {
	positive := false
	for sku, qty := range qtyBySKU {
		if !to.HasSKU(sku) {
			return fmt.Errorf("%w: %s is not on %s", shared.ErrValidation, sku, to.ID)
		}
		if qty < 0 {
			return fmt.Errorf("%w: %s quantity must not be negative", shared.ErrValidation, sku)
		}
		if left := remaining(sku); qty > left {
			return fmt.Errorf("%w: cannot %s %d of %s, only %d remaining", shared.ErrValidation, action, qty, sku, left)
		}
		if qty > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("%w: nothing to %s", shared.ErrValidation, action)
	}
	return nil
}
