package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

// RepositoryPort abstracts ledger storage for the service.
type RepositoryPort interface {
	UpdateLedger(ctx context.Context, fn func(*Ledger, *catalog.ItemMaster) error) error
	ViewLedgers(ctx context.Context, fn func(*Ledger, *ReturnsLedger) error) error
}

// Service exposes balance views and the manual overwrite escape hatch.
type Service struct {
	repo        RepositoryPort
	locations   *catalog.Locations
	clock       shared.Clock
	integration IntegrationHandler
}

// NewService builds Service. integration may be nil.
func NewService(repo RepositoryPort, locations *catalog.Locations, integration IntegrationHandler) *Service {
	if locations == nil {
		locations = catalog.DefaultLocations()
	}
	return &Service{repo: repo, locations: locations, integration: integration}
}

// Balances lists ledger entries matching the filter.
func (s *Service) Balances(ctx context.Context, filter BalanceFilter) ([]Balance, error) {
	location := strings.TrimSpace(filter.Location)
	sku := strings.TrimSpace(filter.SKU)
	var out []Balance
	err := s.repo.ViewLedgers(ctx, func(l *Ledger, _ *ReturnsLedger) error {
		for _, bal := range l.Entries() {
			if location != "" && bal.Location != location {
				continue
			}
			if sku != "" && bal.SKU != sku {
				continue
			}
			out = append(out, bal)
		}
		return nil
	})
	return out, err
}

// Returns lists returned stock, optionally for a single warehouse.
func (s *Service) Returns(ctx context.Context, warehouse string) ([]ReturnBalance, error) {
	warehouse = strings.TrimSpace(warehouse)
	var out []ReturnBalance
	err := s.repo.ViewLedgers(ctx, func(_ *Ledger, r *ReturnsLedger) error {
		for _, entry := range r.Entries() {
			if warehouse != "" && entry.Warehouse != warehouse {
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

// SetBalance overwrites quantity and unit cost directly, bypassing WAVG.
func (s *Service) SetBalance(ctx context.Context, input AdjustmentInput) (Balance, error) {
	input.Location = strings.TrimSpace(input.Location)
	input.SKU = strings.TrimSpace(input.SKU)
	if !s.locations.Known(input.Location) {
		return Balance{}, fmt.Errorf("%w: unknown location %q", shared.ErrValidation, input.Location)
	}
	if input.Qty < 0 {
		return Balance{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrNegativeStock)
	}
	if input.Qty > MaxQty {
		return Balance{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrQuantityOverflow)
	}
	if input.UnitCost < 0 {
		return Balance{}, fmt.Errorf("%w: %v", shared.ErrValidation, ErrInvalidUnitCost)
	}
	var before, after Balance
	err := s.repo.UpdateLedger(ctx, func(l *Ledger, items *catalog.ItemMaster) error {
		if !items.Has(input.SKU) {
			return fmt.Errorf("%w: unknown sku %q", shared.ErrValidation, input.SKU)
		}
		before = l.GetOrZero(input.Location, input.SKU)
		var err error
		after, err = l.Set(input.Location, input.SKU, input.Qty, input.UnitCost)
		return err
	})
	if err != nil {
		return Balance{}, err
	}
	if s.integration != nil {
		evt := BalanceOverwrittenEvent{Before: before, After: after, At: s.clock.OrNow(nil)}
		if err := s.integration.HandleBalanceOverwritten(ctx, evt); err != nil {
			return after, err
		}
	}
	return after, nil
}
