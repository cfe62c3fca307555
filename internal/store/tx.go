package store

import (
	"fmt"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
)

// Tx is a consistent view of the whole state. Inside WithTx it is a private
// staged copy; inside View it is the live state and must be treated as
// read-only.
type Tx struct {
	Items     *catalog.ItemMaster
	Ledger    *inventory.Ledger
	Returns   *inventory.ReturnsLedger
	History   *audit.Log
	Documents *documents.Registry
	Orders    *orders.Book

	locations *catalog.Locations
	issued    []documents.Document
}

// Locations returns the location registry.
func (tx *Tx) Locations() *catalog.Locations {
	return tx.locations
}

// Journal appends a cost history record.
func (tx *Tx) Journal(rec audit.Record) audit.Record {
	return tx.History.Append(rec)
}

// IssueDocument assigns the next id for the document type, renders the blob
// and stores both.
func (tx *Tx) IssueDocument(doc documents.Document) (documents.Document, error) {
	doc.DocID = tx.Documents.NextID(doc.Type)
	blob, err := documents.Render(doc)
	if err != nil {
		return documents.Document{}, err
	}
	if err := tx.Documents.Append(doc, blob); err != nil {
		return documents.Document{}, fmt.Errorf("store: append %s: %w", doc.DocID, err)
	}
	tx.issued = append(tx.issued, doc)
	return doc, nil
}

func (tx *Tx) clone() *Tx {
	return &Tx{
		Items:     tx.Items.Clone(),
		Ledger:    tx.Ledger.Clone(),
		Returns:   tx.Returns.Clone(),
		History:   tx.History.Clone(),
		Documents: tx.Documents.Clone(),
		Orders:    tx.Orders.Clone(),
		locations: tx.locations,
	}
}
