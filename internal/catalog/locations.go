package catalog

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

// LocationKind distinguishes selling outlets from warehouses.
type LocationKind string

const (
	KindOutlet    LocationKind = "OUTLET"
	KindWarehouse LocationKind = "WAREHOUSE"
)

// Location is a stock-holding site.
type Location struct {
	Name string       `json:"name"`
	Kind LocationKind `json:"kind"`
}

// Locations is the fixed set of sites known to the service.
type Locations struct {
	list             []Location
	byName           map[string]LocationKind
	returnsWarehouse string
}

// NewLocations builds the registry. Names must be unique and the returns
// warehouse must be one of the warehouses.
func NewLocations(outlets, warehouses []string, returnsWarehouse string) (*Locations, error) {
	l := &Locations{byName: make(map[string]LocationKind)}
	add := func(name string, kind LocationKind) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: empty location name", shared.ErrValidation)
		}
		if _, dup := l.byName[name]; dup {
			return fmt.Errorf("%w: duplicate location %q", shared.ErrValidation, name)
		}
		l.byName[name] = kind
		l.list = append(l.list, Location{Name: name, Kind: kind})
		return nil
	}
	for _, name := range outlets {
		if err := add(name, KindOutlet); err != nil {
			return nil, err
		}
	}
	for _, name := range warehouses {
		if err := add(name, KindWarehouse); err != nil {
			return nil, err
		}
	}
	returnsWarehouse = strings.TrimSpace(returnsWarehouse)
	if returnsWarehouse == "" && len(warehouses) > 0 {
		returnsWarehouse = strings.TrimSpace(warehouses[0])
	}
	if kind, ok := l.byName[returnsWarehouse]; returnsWarehouse != "" && (!ok || kind != KindWarehouse) {
		return nil, fmt.Errorf("%w: returns warehouse %q is not a warehouse", shared.ErrValidation, returnsWarehouse)
	}
	l.returnsWarehouse = returnsWarehouse
	return l, nil
}

// DefaultLocations mirrors the stock sites of the reference deployment.
func DefaultLocations() *Locations {
	l, _ := NewLocations([]string{"OutletA", "OutletB"}, []string{"Warehouse1", "Warehouse2"}, "Warehouse1")
	return l
}

// Known reports whether the name is a registered location.
func (l *Locations) Known(name string) bool {
	_, ok := l.byName[name]
	return ok
}

// IsOutlet reports whether the name is a registered outlet.
func (l *Locations) IsOutlet(name string) bool {
	return l.byName[name] == KindOutlet
}

// IsWarehouse reports whether the name is a registered warehouse.
func (l *Locations) IsWarehouse(name string) bool {
	return l.byName[name] == KindWarehouse
}

// ReturnsWarehouse is the default destination of outlet returns.
func (l *Locations) ReturnsWarehouse() string {
	return l.returnsWarehouse
}

// All lists locations in registration order.
func (l *Locations) All() []Location {
	return append([]Location(nil), l.list...)
}
