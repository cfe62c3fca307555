package orders

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

// Book holds every purchase and transfer order. Not safe for concurrent use.
type Book struct {
	pos   map[string]*PurchaseOrder
	tos   map[string]*TransferOrder
	poSeq int
	toSeq int
}

// BookState is the serialisable content of a book.
type BookState struct {
	PurchaseOrders []*PurchaseOrder `json:"purchase_orders"`
	TransferOrders []*TransferOrder `json:"transfer_orders"`
	POSeq          int              `json:"po_seq"`
	TOSeq          int              `json:"to_seq"`
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{pos: make(map[string]*PurchaseOrder), tos: make(map[string]*TransferOrder)}
}

// NextPOID reserves the next purchase order id, e.g. "PO1".
func (b *Book) NextPOID() string {
	b.poSeq++
	return "PO" + strconv.Itoa(b.poSeq)
}

// NextTOID reserves the next transfer order id, e.g. "TO1".
func (b *Book) NextTOID() string {
	b.toSeq++
	return "TO" + strconv.Itoa(b.toSeq)
}

// PutPO inserts or replaces a purchase order.
func (b *Book) PutPO(po *PurchaseOrder) {
	b.pos[po.ID] = po
}

// PutTO inserts or replaces a transfer order.
func (b *Book) PutTO(to *TransferOrder) {
	b.tos[to.ID] = to
}

// PO returns the purchase order for mutation.
func (b *Book) PO(id string) (*PurchaseOrder, error) {
	po, ok := b.pos[id]
	if !ok {
		return nil, fmt.Errorf("orders: purchase order %s: %w", id, shared.ErrNotFound)
	}
	return po, nil
}

// TO returns the transfer order for mutation.
func (b *Book) TO(id string) (*TransferOrder, error) {
	to, ok := b.tos[id]
	if !ok {
		return nil, fmt.Errorf("orders: transfer order %s: %w", id, shared.ErrNotFound)
	}
	return to, nil
}

// PurchaseOrders lists copies ordered by id sequence.
func (b *Book) PurchaseOrders() []*PurchaseOrder {
	out := make([]*PurchaseOrder, 0, len(b.pos))
	for _, po := range b.pos {
		out = append(out, po.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return seq(out[i].ID) < seq(out[j].ID) })
	return out
}

// TransferOrders lists copies ordered by id sequence.
func (b *Book) TransferOrders() []*TransferOrder {
	out := make([]*TransferOrder, 0, len(b.tos))
	for _, to := range b.tos {
		out = append(out, to.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return seq(out[i].ID) < seq(out[j].ID) })
	return out
}

// Clear removes every order and keeps the id counters.
func (b *Book) Clear() {
	b.pos = make(map[string]*PurchaseOrder)
	b.tos = make(map[string]*TransferOrder)
}

// Clone returns a deep copy.
func (b *Book) Clone() *Book {
	cp := &Book{
		pos:   make(map[string]*PurchaseOrder, len(b.pos)),
		tos:   make(map[string]*TransferOrder, len(b.tos)),
		poSeq: b.poSeq,
		toSeq: b.toSeq,
	}
	for id, po := range b.pos {
		cp.pos[id] = po.Clone()
	}
	for id, to := range b.tos {
		cp.tos[id] = to.Clone()
	}
	return cp
}

// Export returns the book content.
func (b *Book) Export() BookState {
	return BookState{PurchaseOrders: b.PurchaseOrders(), TransferOrders: b.TransferOrders(), POSeq: b.poSeq, TOSeq: b.toSeq}
}

// Load replaces the book content.
func (b *Book) Load(st BookState) {
	b.Clear()
	for _, po := range st.PurchaseOrders {
		b.pos[po.ID] = po.Clone()
	}
	for _, to := range st.TransferOrders {
		b.tos[to.ID] = to.Clone()
	}
	b.poSeq = st.POSeq
	b.toSeq = st.TOSeq
}

func seq(id string) int {
	if len(id) < 2 {
		return 0
	}
	n, _ := strconv.Atoi(id[2:])
	return n
}
