package inventory

import (
	"fmt"
	"sort"
)

// Ledger maps (location, sku) to a weighted-average balance. It is not safe for
// concurrent use; the store serialises access.
type Ledger struct {
	entries map[Key]Balance
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[Key]Balance)}
}

// Get returns the entry and whether it exists.
func (l *Ledger) Get(location, sku string) (Balance, bool) {
	bal, ok := l.entries[Key{Location: location, SKU: sku}]
	return bal, ok
}

// GetOrZero returns the entry or an empty balance for the key.
func (l *Ledger) GetOrZero(location, sku string) Balance {
	if bal, ok := l.Get(location, sku); ok {
		return bal
	}
	return Balance{Location: location, SKU: sku}
}

// UnitCostOr returns the live unit cost, or fallback when no entry exists.
func (l *Ledger) UnitCostOr(location, sku string, fallback float64) float64 {
	if bal, ok := l.Get(location, sku); ok {
		return bal.UnitCost
	}
	return fallback
}

// Receive merges an inbound movement using the weighted-average rule. The
// entry is left untouched when the result would exceed MaxQty.
func (l *Ledger) Receive(location, sku string, qty int64, unitCost float64) (Balance, error) {
	if qty < 0 {
		return Balance{}, ErrInvalidQuantity
	}
	if unitCost < 0 {
		return Balance{}, ErrInvalidUnitCost
	}
	bal := l.GetOrZero(location, sku)
	if qty > MaxQty-bal.Qty {
		return Balance{}, fmt.Errorf("%w: %s %s holds %d, cannot add %d", ErrQuantityOverflow, location, sku, bal.Qty, qty)
	}
	bal = MergeWAVG(bal, qty, unitCost)
	l.entries[Key{Location: location, SKU: sku}] = bal
	return bal, nil
}

// MergeWAVG blends an incoming quantity and cost into an existing balance.
func MergeWAVG(prev Balance, qty int64, unitCost float64) Balance {
	newQty := prev.Qty + qty
	newCost := unitCost
	if newQty != 0 {
		newCost = (float64(prev.Qty)*prev.UnitCost + float64(qty)*unitCost) / float64(newQty)
	}
	prev.Qty = newQty
	prev.UnitCost = newCost
	return prev
}

// Issue deducts qty strictly. The entry is left untouched when stock is short.
// Unit cost is kept even when the balance reaches zero.
func (l *Ledger) Issue(location, sku string, qty int64) (Balance, error) {
	if qty <= 0 {
		return Balance{}, ErrInvalidQuantity
	}
	bal, ok := l.Get(location, sku)
	if !ok || bal.Qty < qty {
		return Balance{}, &InsufficientStockError{Location: location, SKU: sku, Required: qty, Available: bal.Qty}
	}
	bal.Qty -= qty
	l.entries[Key{Location: location, SKU: sku}] = bal
	return bal, nil
}

// IssueFloor deducts qty, clamping the balance at zero. It returns the balance
// before deduction and whether the entry existed.
func (l *Ledger) IssueFloor(location, sku string, qty int64) (Balance, bool) {
	bal, ok := l.Get(location, sku)
	if !ok {
		return Balance{Location: location, SKU: sku}, false
	}
	before := bal
	bal.Qty -= qty
	if bal.Qty < 0 {
		bal.Qty = 0
	}
	l.entries[Key{Location: location, SKU: sku}] = bal
	return before, true
}

// Set overwrites the entry, bypassing WAVG.
func (l *Ledger) Set(location, sku string, qty int64, unitCost float64) (Balance, error) {
	if qty < 0 {
		return Balance{}, ErrNegativeStock
	}
	if qty > MaxQty {
		return Balance{}, ErrQuantityOverflow
	}
	if unitCost < 0 {
		return Balance{}, ErrInvalidUnitCost
	}
	bal := Balance{Location: location, SKU: sku, Qty: qty, UnitCost: unitCost}
	l.entries[Key{Location: location, SKU: sku}] = bal
	return bal, nil
}

// Entries lists balances ordered by location then sku.
func (l *Ledger) Entries() []Balance {
	out := make([]Balance, 0, len(l.entries))
	for _, bal := range l.entries {
		out = append(out, bal)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].SKU < out[j].SKU
	})
	return out
}

// Len reports the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clone returns an independent copy.
func (l *Ledger) Clone() *Ledger {
	cp := &Ledger{entries: make(map[Key]Balance, len(l.entries))}
	for k, v := range l.entries {
		cp.entries[k] = v
	}
	return cp
}

// Load replaces the ledger content with the given balances.
func (l *Ledger) Load(balances []Balance) {
	l.entries = make(map[Key]Balance, len(balances))
	for _, bal := range balances {
		l.entries[Key{Location: bal.Location, SKU: bal.SKU}] = bal
	}
}
