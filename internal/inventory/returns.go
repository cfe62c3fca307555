package inventory

import (
	"fmt"
	"sort"
)

// ReturnsLedger holds stock returned from outlets, keyed by (warehouse, sku).
type ReturnsLedger struct {
	entries map[Key]ReturnBalance
}

// NewReturnsLedger returns an empty returns ledger.
func NewReturnsLedger() *ReturnsLedger {
	return &ReturnsLedger{entries: make(map[Key]ReturnBalance)}
}

// Add accumulates qty, overwrites the unit cost with the latest known value and
// appends the reason.
func (l *ReturnsLedger) Add(warehouse, sku string, qty int64, unitCost float64, reason string) (ReturnBalance, error) {
	key := Key{Location: warehouse, SKU: sku}
	entry, ok := l.entries[key]
	if !ok {
		entry = ReturnBalance{Warehouse: warehouse, SKU: sku}
	}
	if qty < 0 {
		return ReturnBalance{}, ErrInvalidQuantity
	}
	if qty > MaxQty-entry.Qty {
		return ReturnBalance{}, fmt.Errorf("%w: %s %s holds %d returned, cannot add %d", ErrQuantityOverflow, warehouse, sku, entry.Qty, qty)
	}
	entry.Qty += qty
	entry.UnitCost = unitCost
	entry.Reasons = append(append([]string(nil), entry.Reasons...), reason)
	l.entries[key] = entry
	return entry, nil
}

// Get returns the entry and whether it exists.
func (l *ReturnsLedger) Get(warehouse, sku string) (ReturnBalance, bool) {
	entry, ok := l.entries[Key{Location: warehouse, SKU: sku}]
	return entry, ok
}

// Entries lists entries ordered by warehouse then sku.
func (l *ReturnsLedger) Entries() []ReturnBalance {
	out := make([]ReturnBalance, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Warehouse != out[j].Warehouse {
			return out[i].Warehouse < out[j].Warehouse
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

// Clone returns an independent copy.
func (l *ReturnsLedger) Clone() *ReturnsLedger {
	cp := &ReturnsLedger{entries: make(map[Key]ReturnBalance, len(l.entries))}
	for k, v := range l.entries {
		v.Reasons = append([]string(nil), v.Reasons...)
		cp.entries[k] = v
	}
	return cp
}

// Load replaces the content with the given entries.
func (l *ReturnsLedger) Load(entries []ReturnBalance) {
	l.entries = make(map[Key]ReturnBalance, len(entries))
	for _, entry := range entries {
		entry.Reasons = append([]string(nil), entry.Reasons...)
		l.entries[Key{Location: entry.Warehouse, SKU: entry.SKU}] = entry
	}
}
