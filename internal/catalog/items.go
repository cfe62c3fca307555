package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

// DefaultUnitCost is used for SKUs without a configured cost.
const DefaultUnitCost = 1.00

// MinUnitCost is the smallest accepted purchase cost.
const MinUnitCost = 0.01

// Item is an item master row.
type Item struct {
	SKU      string  `json:"sku"`
	UnitCost float64 `json:"unit_cost"`
}

// ItemMaster maps SKUs to their default unit cost. Orders copy the value at
// creation time. Not safe for concurrent use.
type ItemMaster struct {
	costs map[string]float64
}

// NewItemMaster builds the item master from seed rows.
func NewItemMaster(seed map[string]float64) *ItemMaster {
	m := &ItemMaster{costs: make(map[string]float64, len(seed))}
	for sku, cost := range seed {
		sku = strings.TrimSpace(sku)
		if sku == "" {
			continue
		}
		if cost < MinUnitCost {
			cost = DefaultUnitCost
		}
		m.costs[sku] = cost
	}
	return m
}

// DefaultSeed lists the SKUs available out of the box.
func DefaultSeed() map[string]float64 {
	return map[string]float64{"MILK2002": DefaultUnitCost, "BREAD1001": DefaultUnitCost}
}

// Add registers a new SKU.
func (m *ItemMaster) Add(sku string, cost float64) (Item, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Item{}, fmt.Errorf("%w: sku cannot be empty", shared.ErrValidation)
	}
	if _, ok := m.costs[sku]; ok {
		return Item{}, fmt.Errorf("%w: sku %s already exists", shared.ErrValidation, sku)
	}
	if cost < MinUnitCost {
		return Item{}, fmt.Errorf("%w: unit cost must be at least %.2f", shared.ErrValidation, MinUnitCost)
	}
	m.costs[sku] = cost
	return Item{SKU: sku, UnitCost: cost}, nil
}

// SetCost changes the default cost of an existing SKU.
func (m *ItemMaster) SetCost(sku string, cost float64) (Item, error) {
	if _, ok := m.costs[sku]; !ok {
		return Item{}, fmt.Errorf("catalog: sku %s: %w", sku, shared.ErrNotFound)
	}
	if cost < MinUnitCost {
		return Item{}, fmt.Errorf("%w: unit cost must be at least %.2f", shared.ErrValidation, MinUnitCost)
	}
	m.costs[sku] = cost
	return Item{SKU: sku, UnitCost: cost}, nil
}

// Has reports whether the SKU exists.
func (m *ItemMaster) Has(sku string) bool {
	_, ok := m.costs[sku]
	return ok
}

// CostOr returns the default cost of the SKU or fallback.
func (m *ItemMaster) CostOr(sku string, fallback float64) float64 {
	if cost, ok := m.costs[sku]; ok {
		return cost
	}
	return fallback
}

// Items lists SKUs sorted by code.
func (m *ItemMaster) Items() []Item {
	out := make([]Item, 0, len(m.costs))
	for sku, cost := range m.costs {
		out = append(out, Item{SKU: sku, UnitCost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

// Clone returns an independent copy.
func (m *ItemMaster) Clone() *ItemMaster {
	cp := &ItemMaster{costs: make(map[string]float64, len(m.costs))}
	for k, v := range m.costs {
		cp.costs[k] = v
	}
	return cp
}

// Load replaces the content with the given items.
func (m *ItemMaster) Load(items []Item) {
	m.costs = make(map[string]float64, len(items))
	for _, it := range items {
		m.costs[it.SKU] = it.UnitCost
	}
}
