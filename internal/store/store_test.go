package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/orders"
)

type recordingHook struct {
	docs []documents.Document
}

func (r *recordingHook) HandleDocumentsIssued(ctx context.Context, docs []documents.Document) error {
	r.docs = append(r.docs, docs...)
	return nil
}

func issueGRN(ctx context.Context, tx *Tx) error {
	tx.Ledger.Receive("OutletA", "MILK2002", 10, 2)
	doc, err := tx.IssueDocument(documents.Document{Type: documents.TypeGRN, Timestamp: time.Now(), Ref: "PO1", Location: "OutletA", Items: []documents.Line{documents.NewLine("MILK2002", 10, 2)}})
	if err != nil {
		return err
	}
	tx.Journal(audit.Record{Type: audit.TypeGRN, SKU: "MILK2002", Qty: 10, UnitCost: 2, Location: "OutletA", DocID: doc.DocID})
	tx.Orders.PutPO(&orders.PurchaseOrder{ID: tx.Orders.NextPOID(), Outlet: "OutletA", Status: orders.Active(orders.StateCompleted)})
	return nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	mem := New(nil)
	hook := &recordingHook{}
	mem.AddDocumentHook(hook)
	ctx := context.Background()

	require.NoError(t, mem.WithTx(ctx, issueGRN))
	require.Equal(t, uint64(1), mem.Version())
	require.Len(t, hook.docs, 1)
	require.Equal(t, "GRN1", hook.docs[0].DocID)

	require.NoError(t, mem.View(ctx, func(tx *Tx) error {
		require.Equal(t, int64(10), tx.Ledger.GetOrZero("OutletA", "MILK2002").Qty)
		require.Equal(t, 1, tx.History.Len())
		require.Equal(t, 1, tx.Documents.Len())
		return nil
	}))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	mem := New(nil)
	hook := &recordingHook{}
	mem.AddDocumentHook(hook)
	ctx := context.Background()
	boom := errors.New("boom")

	err := mem.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := issueGRN(ctx, tx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, mem.Version())
	require.Empty(t, hook.docs)

	require.NoError(t, mem.View(ctx, func(tx *Tx) error {
		require.Zero(t, tx.Ledger.Len())
		require.Zero(t, tx.History.Len())
		require.Zero(t, tx.Documents.Len())
		require.Empty(t, tx.Orders.PurchaseOrders())
		return nil
	}))

	// ids reserved by the failed operation are not consumed
	require.NoError(t, mem.WithTx(ctx, issueGRN))
	require.Equal(t, "GRN1", hook.docs[0].DocID)
}

func TestWithTxHonoursCancelledContext(t *testing.T) {
	mem := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := mem.WithTx(ctx, func(context.Context, *Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestResetKeepsItemsAndCounters(t *testing.T) {
	mem := New(nil)
	ctx := context.Background()
	require.NoError(t, mem.WithTx(ctx, issueGRN))
	require.NoError(t, mem.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		tx.Returns.Add("Warehouse1", "MILK2002", 1, 2, "damaged")
		_, err := tx.Items.Add("COFFEE01", 4)
		return err
	}))

	require.NoError(t, mem.Reset(ctx))
	require.NoError(t, mem.View(ctx, func(tx *Tx) error {
		require.Zero(t, tx.Ledger.Len())
		require.Empty(t, tx.Returns.Entries())
		require.Zero(t, tx.History.Len())
		require.Zero(t, tx.Documents.Len())
		require.Empty(t, tx.Orders.PurchaseOrders())
		require.True(t, tx.Items.Has("COFFEE01"))
		return nil
	}))

	require.NoError(t, mem.WithTx(ctx, issueGRN))
	require.NoError(t, mem.View(ctx, func(tx *Tx) error {
		_, err := tx.Documents.Get("GRN2")
		require.NoError(t, err)
		_, err = tx.Orders.PO("PO2")
		require.NoError(t, err)
		return nil
	}))
}

func TestExportImportRoundTrip(t *testing.T) {
	mem := New(nil)
	ctx := context.Background()
	require.NoError(t, mem.WithTx(ctx, issueGRN))

	st, err := mem.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), st.Version)

	restored := New(nil)
	require.NoError(t, restored.Import(ctx, st))
	again, err := restored.Export(ctx)
	require.NoError(t, err)
	require.Equal(t, st.Balances, again.Balances)
	require.Equal(t, st.History, again.History)
	require.Equal(t, st.Orders.POSeq, again.Orders.POSeq)

	var blob []byte
	require.NoError(t, restored.ViewDocuments(ctx, func(r *documents.Registry) error {
		var err error
		blob, err = r.Blob("GRN1")
		return err
	}))
	require.Contains(t, string(blob), "Goods Received Note")
}

func TestWithTxReleasesLockOnPanic(t *testing.T) {
	mem := New(nil)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = mem.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
			tx.Ledger.Receive("OutletA", "MILK2002", 10, 2)
			panic("boom")
		})
	})

	done := make(chan error, 1)
	go func() {
		done <- mem.View(ctx, func(tx *Tx) error {
			if _, ok := tx.Ledger.Get("OutletA", "MILK2002"); ok {
				return errors.New("panicked transaction leaked into live state")
			}
			return nil
		})
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("store still locked after a panicking transaction")
	}

	require.Zero(t, mem.Version())
	require.NoError(t, mem.WithTx(ctx, issueGRN))
	require.Equal(t, uint64(1), mem.Version())
}
