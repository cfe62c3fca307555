package catalog

import (
	"context"
	"log/slog"
)

// RepositoryPort abstracts the item master storage.
type RepositoryPort interface {
	UpdateItems(ctx context.Context, fn func(*ItemMaster) error) error
	ViewItems(ctx context.Context, fn func(*ItemMaster) error) error
}

// Service exposes item master maintenance and the location registry.
type Service struct {
	repo      RepositoryPort
	locations *Locations
	logger    *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, locations *Locations, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if locations == nil {
		locations = DefaultLocations()
	}
	return &Service{repo: repo, locations: locations, logger: logger}
}

// AddSKU registers a new SKU with its default cost.
func (s *Service) AddSKU(ctx context.Context, sku string, cost float64) (Item, error) {
	var item Item
	err := s.repo.UpdateItems(ctx, func(m *ItemMaster) error {
		var err error
		item, err = m.Add(sku, cost)
		return err
	})
	if err != nil {
		return Item{}, err
	}
	s.logger.Info("sku added", slog.String("sku", item.SKU), slog.Float64("unit_cost", item.UnitCost))
	return item, nil
}

// SetCost updates the default cost used for new order lines.
func (s *Service) SetCost(ctx context.Context, sku string, cost float64) (Item, error) {
	var item Item
	err := s.repo.UpdateItems(ctx, func(m *ItemMaster) error {
		var err error
		item, err = m.SetCost(sku, cost)
		return err
	})
	return item, err
}

// Items lists the item master.
func (s *Service) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	err := s.repo.ViewItems(ctx, func(m *ItemMaster) error {
		items = m.Items()
		return nil
	})
	return items, err
}

// Locations returns the location registry.
func (s *Service) Locations() *Locations {
	return s.locations
}
