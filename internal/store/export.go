package store

import (
	"context"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
)

// State is the verbatim serialisable content of the store.
type State struct {
	Version   uint64                    `json:"version"`
	Items     []catalog.Item            `json:"items"`
	Balances  []inventory.Balance       `json:"balances"`
	Returns   []inventory.ReturnBalance `json:"returns"`
	History   []audit.Record            `json:"history"`
	Documents documents.State           `json:"documents"`
	Orders    orders.BookState          `json:"orders"`
}

// Export captures the current state.
func (m *Memory) Export(ctx context.Context) (State, error) {
	var st State
	err := m.View(ctx, func(tx *Tx) error {
		st = State{
			Version:   m.version,
			Items:     tx.Items.Items(),
			Balances:  tx.Ledger.Entries(),
			Returns:   tx.Returns.Entries(),
			History:   tx.History.Records(),
			Documents: tx.Documents.Export(),
			Orders:    tx.Orders.Export(),
		}
		return nil
	})
	return st, err
}

// Import replaces the whole state.
func (m *Memory) Import(ctx context.Context, st State) error {
	return m.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		if len(st.Items) > 0 {
			tx.Items.Load(st.Items)
		}
		tx.Ledger.Load(st.Balances)
		tx.Returns.Load(st.Returns)
		tx.History.Load(st.History)
		tx.Documents.Load(st.Documents)
		tx.Orders.Load(st.Orders)
		return nil
	})
}
