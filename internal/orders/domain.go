package orders

import (
	"time"
)

// LineItem is an ordered SKU. UnitCost is only used by purchase orders.
type LineItem struct {
	SKU      string  `json:"sku"`
	Qty      int64   `json:"qty"`
	UnitCost float64 `json:"unit_cost,omitempty"`
}

// Progress tracks cumulative per-SKU quantities. Missing keys read as zero.
type Progress map[string]int64

// Get returns the quantity for sku, or zero.
func (p Progress) Get(sku string) int64 {
	return p[sku]
}

func (p Progress) clone() Progress {
	if p == nil {
		return nil
	}
	cp := make(Progress, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// PurchaseOrder restocks an outlet from a supplier.
type PurchaseOrder struct {
	ID        string     `json:"id"`
	Outlet    string     `json:"outlet"`
	Items     []LineItem `json:"items"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Documents []string   `json:"documents,omitempty"`
}

// Total is the ordered value.
func (po *PurchaseOrder) Total() float64 {
	var total float64
	for _, it := range po.Items {
		total += float64(it.Qty) * it.UnitCost
	}
	return total
}

// Clone returns a deep copy.
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	cp := *po
	cp.Items = append([]LineItem(nil), po.Items...)
	cp.Documents = append([]string(nil), po.Documents...)
	cp.Status = po.Status.clone()
	return &cp
}

// TransferOrder moves stock between two locations.
type TransferOrder struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Items       []LineItem `json:"items"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Fulfilled   Progress   `json:"fulfilled"`
	Received    Progress   `json:"received"`
	Documents   []string   `json:"documents,omitempty"`
}

// LineProgress is the per-SKU progress view of a transfer line.
type LineProgress struct {
	SKU              string `json:"sku"`
	Requested        int64  `json:"requested"`
	Fulfilled        int64  `json:"fulfilled"`
	Received         int64  `json:"received"`
	RemainingFulfill int64  `json:"remaining_fulfill"`
	RemainingReceive int64  `json:"remaining_receive"`
}

// Requested returns the ordered quantity of sku.
func (to *TransferOrder) Requested(sku string) int64 {
	var qty int64
	for _, it := range to.Items {
		if it.SKU == sku {
			qty += it.Qty
		}
	}
	return qty
}

// HasSKU reports whether sku is one of the order lines.
func (to *TransferOrder) HasSKU(sku string) bool {
	for _, it := range to.Items {
		if it.SKU == sku {
			return true
		}
	}
	return false
}

// RemainingToFulfill is requested minus fulfilled.
func (to *TransferOrder) RemainingToFulfill(sku string) int64 {
	return to.Requested(sku) - to.Fulfilled.Get(sku)
}

// RemainingToReceive is fulfilled minus received.
func (to *TransferOrder) RemainingToReceive(sku string) int64 {
	return to.Fulfilled.Get(sku) - to.Received.Get(sku)
}

// InTransit reports whether any shipped quantity has not been received yet.
func (to *TransferOrder) InTransit() bool {
	for _, it := range to.Items {
		if to.RemainingToReceive(it.SKU) > 0 {
			return true
		}
	}
	return false
}

// FullyReceived reports whether every line has been received in full.
func (to *TransferOrder) FullyReceived() bool {
	for _, it := range to.Items {
		if to.Received.Get(it.SKU) < it.Qty {
			return false
		}
	}
	return true
}

// ResetProgress zeroes both progress maps for every line.
func (to *TransferOrder) ResetProgress() {
	to.Fulfilled = make(Progress, len(to.Items))
	to.Received = make(Progress, len(to.Items))
	for _, it := range to.Items {
		to.Fulfilled[it.SKU] = 0
		to.Received[it.SKU] = 0
	}
}

// Lines returns the progress of every line in order.
func (to *TransferOrder) Lines() []LineProgress {
	out := make([]LineProgress, 0, len(to.Items))
	for _, it := range to.Items {
		out = append(out, LineProgress{
			SKU:              it.SKU,
			Requested:        it.Qty,
			Fulfilled:        to.Fulfilled.Get(it.SKU),
			Received:         to.Received.Get(it.SKU),
			RemainingFulfill: to.RemainingToFulfill(it.SKU),
			RemainingReceive: to.RemainingToReceive(it.SKU),
		})
	}
	return out
}

// Clone returns a deep copy.
func (to *TransferOrder) Clone() *TransferOrder {
	cp := *to
	cp.Items = append([]LineItem(nil), to.Items...)
	cp.Documents = append([]string(nil), to.Documents...)
	cp.Fulfilled = to.Fulfilled.clone()
	cp.Received = to.Received.clone()
	cp.Status = to.Status.clone()
	return &cp
}
