package procurement

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/shared"
	"github.com/odyssey-erp/stockflow/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingIntegration struct {
	events []GRNPostedEvent
}

func (r *recordingIntegration) HandleGRNPosted(ctx context.Context, evt GRNPostedEvent) error {
	r.events = append(r.events, evt)
	return nil
}

func newService(t *testing.T) (*Service, *store.Memory, *recordingIntegration) {
	t.Helper()
	mem := store.New(nil)
	integration := &recordingIntegration{}
	return NewService(mem, func() time.Time { return fixedNow }, integration), mem, integration
}

func createReceiving(t *testing.T, svc *Service, input CreatePOInput) *orders.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po, err := svc.Create(ctx, input)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, po.ID)
	require.NoError(t, err)
	po, err = svc.Approve(ctx, po.ID, nil)
	require.NoError(t, err)
	return po
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	svc, mem, integration := newService(t)
	ctx := context.Background()

	po, err := svc.Create(ctx, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 10, UnitCost: 2}}})
	require.NoError(t, err)
	require.Equal(t, "PO1", po.ID)
	require.True(t, po.Status.Is(orders.StateDraft))

	po, err = svc.Submit(ctx, po.ID)
	require.NoError(t, err)
	require.True(t, po.Status.Is(orders.StateRequesting))

	approvedAt := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	po, err = svc.Approve(ctx, po.ID, &approvedAt)
	require.NoError(t, err)
	require.True(t, po.Status.Is(orders.StateReceiving))
	require.Equal(t, approvedAt, po.CreatedAt)

	po, err = svc.Receive(ctx, po.ID, nil)
	require.NoError(t, err)
	require.True(t, po.Status.Is(orders.StateCompleted))
	require.Equal(t, []string{"GRN1"}, po.Documents)

	// Scenario A
	err = mem.View(ctx, func(tx *store.Tx) error {
		bal, ok := tx.Ledger.Get("OutletA", "MILK2002")
		require.True(t, ok)
		require.Equal(t, int64(10), bal.Qty)
		require.InDelta(t, 2.0, bal.UnitCost, 1e-9)

		grns := tx.Documents.List(documents.TypeGRN)
		require.Len(t, grns, 1)
		require.Len(t, grns[0].Items, 1)
		require.Equal(t, "PO1", grns[0].Ref)
		_, err := tx.Documents.Blob("GRN1")
		require.NoError(t, err)

		records := tx.History.Records()
		require.Len(t, records, 1)
		require.Equal(t, audit.TypeGRN, records[0].Type)
		require.InDelta(t, 20.0, records[0].TotalCost, 1e-9)
		require.Equal(t, "OutletA", records[0].Location)
		require.Equal(t, "GRN1", records[0].DocID)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, integration.events, 1)
	require.Equal(t, "GRN1", integration.events[0].DocID)
	require.Equal(t, fixedNow, integration.events[0].ReceivedAt)
}

func TestReceiveMergesWAVG(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	first := createReceiving(t, svc, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 10, UnitCost: 2}}})
	_, err := svc.Receive(ctx, first.ID, nil)
	require.NoError(t, err)
	second := createReceiving(t, svc, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 10, UnitCost: 4}, {SKU: "BREAD1001", Qty: 1, UnitCost: 1}}})
	_, err = svc.Receive(ctx, second.ID, nil)
	require.NoError(t, err)

	require.NoError(t, mem.View(ctx, func(tx *store.Tx) error {
		bal := tx.Ledger.GetOrZero("OutletA", "MILK2002")
		require.Equal(t, int64(20), bal.Qty)
		require.InDelta(t, 3.0, bal.UnitCost, 1e-9)
		require.Len(t, tx.Documents.List(documents.TypeGRN), 2)
		require.Equal(t, 3, tx.History.Len())
		return nil
	}))
}

func TestInvalidTransitionsRejected(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	po, err := svc.Create(ctx, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 1, UnitCost: 1}}})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, po.ID, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = svc.Receive(ctx, po.ID, nil)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Submit(ctx, "PO99")
	require.ErrorIs(t, err, shared.ErrNotFound)

	po, err = svc.Get(ctx, po.ID)
	require.NoError(t, err)
	require.True(t, po.Status.Is(orders.StateDraft))

	po = createReceiving(t, svc, CreatePOInput{Outlet: "OutletB", Items: []LineInput{{SKU: "MILK2002", Qty: 1, UnitCost: 1}}})
	_, err = svc.Receive(ctx, po.ID, nil)
	require.NoError(t, err)
	_, err = svc.Receive(ctx, po.ID, nil)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.NoError(t, mem.View(ctx, func(tx *store.Tx) error {
		require.Equal(t, int64(1), tx.Ledger.GetOrZero("OutletB", "MILK2002").Qty)
		return nil
	}))
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	cases := []CreatePOInput{
		{Outlet: "OutletA"},
		{Outlet: "Warehouse1", Items: []LineInput{{SKU: "MILK2002", Qty: 1, UnitCost: 1}}},
		{Outlet: "OutletA", Items: []LineInput{{SKU: "UNKNOWN", Qty: 1, UnitCost: 1}}},
		{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 0, UnitCost: 1}}},
		{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: 1, UnitCost: 0.001}}},
	}
	for _, tc := range cases {
		_, err := svc.Create(ctx, tc)
		require.ErrorIs(t, err, shared.ErrValidation)
	}

	pos, err := svc.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Empty(t, pos)
}

func TestCreateCopiesItemMasterCost(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, mem.UpdateItems(ctx, func(m *catalog.ItemMaster) error {
		_, err := m.SetCost("BREAD1001", 1.75)
		return err
	}))

	po, err := svc.Create(ctx, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "BREAD1001", Qty: 2}, {SKU: "BREAD1001", Qty: 1, UnitCost: 2}}})
	require.NoError(t, err)
	require.Len(t, po.Items, 2)
	require.InDelta(t, 1.75, po.Items[0].UnitCost, 1e-9)
	require.InDelta(t, 5.5, po.Total(), 1e-9)

	list, err := svc.List(ctx, ListFilter{Status: orders.StateDraft})
	require.NoError(t, err)
	require.Len(t, list, 1)
	list, err = svc.List(ctx, ListFilter{Status: orders.StateCompleted})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestHandlerLifecycle(t *testing.T) {
	svc, _, _ := newService(t)
	router := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(router)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodPost, "/procurement/pos", `{"outlet":"OutletA","items":[{"sku":"MILK2002","qty":10,"unit_cost":2}]}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"id":"PO1"`)

	rr = do(http.MethodPost, "/procurement/pos", `{"outlet":"OutletA","items":[]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPost, "/procurement/pos/PO1/approve", "")
	require.Equal(t, http.StatusConflict, rr.Code)

	require.Equal(t, http.StatusOK, do(http.MethodPost, "/procurement/pos/PO1/submit", "").Code)
	require.Equal(t, http.StatusOK, do(http.MethodPost, "/procurement/pos/PO1/approve", `{"at":"2024-03-05T00:00:00Z"}`).Code)
	rr = do(http.MethodPost, "/procurement/pos/PO1/receive", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"label":"Completed"`)

	require.Equal(t, http.StatusNotFound, do(http.MethodGet, "/procurement/pos/PO7", "").Code)
	rr = do(http.MethodGet, "/procurement/pos?status=Completed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "PO1")
}

func TestReceiveRejectsLedgerOverflow(t *testing.T) {
	svc, mem, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: inventory.MaxQty + 1, UnitCost: 2}}})
	require.ErrorIs(t, err, shared.ErrValidation)

	first := createReceiving(t, svc, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: inventory.MaxQty - 1, UnitCost: 2}}})
	second := createReceiving(t, svc, CreatePOInput{Outlet: "OutletA", Items: []LineInput{{SKU: "MILK2002", Qty: inventory.MaxQty - 1, UnitCost: 2}}})
	_, err = svc.Receive(ctx, first.ID, nil)
	require.NoError(t, err)

	_, err = svc.Receive(ctx, second.ID, nil)
	require.ErrorIs(t, err, shared.ErrValidation)
	require.ErrorIs(t, err, inventory.ErrQuantityOverflow)

	po, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	require.True(t, po.Status.Is(orders.StateReceiving))
	require.NoError(t, mem.View(ctx, func(tx *store.Tx) error {
		bal, ok := tx.Ledger.Get("OutletA", "MILK2002")
		require.True(t, ok)
		require.Equal(t, inventory.MaxQty-1, bal.Qty)
		require.InDelta(t, 2.0, bal.UnitCost, 1e-9)
		return nil
	}))
}
