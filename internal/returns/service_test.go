package returns

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
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/shared"
	"github.com/odyssey-erp/stockflow/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.New(nil)
	return NewService(mem, func() time.Time { return fixedNow }), mem
}

func seed(t *testing.T, mem *store.Memory, location, sku string, qty int64, cost float64) {
	t.Helper()
	require.NoError(t, mem.WithTx(context.Background(), func(_ context.Context, tx *store.Tx) error {
		_, err := tx.Ledger.Set(location, sku, qty, cost)
		return err
	}))
}

func TestStockReturnScenario(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	seed(t, mem, "OutletA", "MILK2002", 10, 2)

	result, err := svc.Process(ctx, ReturnInput{Outlet: "OutletA", Items: []ItemInput{{SKU: "MILK2002", Qty: 3, Reason: "damaged"}}})
	require.NoError(t, err)
	require.Equal(t, "RN1", result.DocID)
	require.Equal(t, "Warehouse1", result.Warehouse)

	require.NoError(t, mem.View(ctx, func(tx *store.Tx) error {
		require.Equal(t, int64(7), tx.Ledger.GetOrZero("OutletA", "MILK2002").Qty)

		entry, ok := tx.Returns.Get("Warehouse1", "MILK2002")
		require.True(t, ok)
		require.Equal(t, int64(3), entry.Qty)
		require.InDelta(t, 2.0, entry.UnitCost, 1e-9)
		require.Equal(t, []string{"damaged"}, entry.Reasons)

		records := tx.History.Records()
		require.Len(t, records, 1)
		require.Equal(t, audit.TypeReturn, records[0].Type)
		require.Equal(t, "OutletA", records[0].From)
		require.Equal(t, "Warehouse1", records[0].To)
		require.Empty(t, records[0].Location)
		require.InDelta(t, 6.0, records[0].TotalCost, 1e-9)

		rns := tx.Documents.List(documents.TypeRN)
		require.Len(t, rns, 1)
		require.Equal(t, "damaged", rns[0].Items[0].Reason)
		return nil
	}))
}

func TestReturnFloorsAndFallsBackToDefaultCost(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	seed(t, mem, "OutletB", "MILK2002", 2, 3)

	_, err := svc.Process(ctx, ReturnInput{Outlet: "OutletB", Warehouse: "Warehouse2", Items: []ItemInput{
		{SKU: "MILK2002", Qty: 5, Reason: "expired"},
		{SKU: "BREAD1001", Qty: 1, Reason: "expired"},
		{SKU: "MILK2002", Qty: 1, Reason: "expired"},
	}})
	require.NoError(t, err)

	require.NoError(t, mem.View(ctx, func(tx *store.Tx) error {
		require.Zero(t, tx.Ledger.GetOrZero("OutletB", "MILK2002").Qty)
		_, exists := tx.Ledger.Get("OutletB", "BREAD1001")
		require.False(t, exists)

		milk, _ := tx.Returns.Get("Warehouse2", "MILK2002")
		require.Equal(t, int64(6), milk.Qty)
		require.InDelta(t, 3.0, milk.UnitCost, 1e-9)
		require.Equal(t, []string{"expired", "expired"}, milk.Reasons)

		bread, _ := tx.Returns.Get("Warehouse2", "BREAD1001")
		require.InDelta(t, 1.0, bread.UnitCost, 1e-9)
		require.Equal(t, 3, tx.History.Len())
		require.Equal(t, 1, tx.Documents.Len())
		return nil
	}))
}

func TestReturnValidation(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()
	seed(t, mem, "OutletA", "MILK2002", 10, 2)
	before := mem.Version()

	cases := []ReturnInput{
		{Outlet: "OutletA"},
		{Outlet: "Warehouse1", Items: []ItemInput{{SKU: "MILK2002", Qty: 1, Reason: "x"}}},
		{Outlet: "OutletA", Warehouse: "OutletB", Items: []ItemInput{{SKU: "MILK2002", Qty: 1, Reason: "x"}}},
		{Outlet: "OutletA", Items: []ItemInput{{SKU: "MILK2002", Qty: 0, Reason: "x"}}},
		{Outlet: "OutletA", Items: []ItemInput{{SKU: "MILK2002", Qty: 1, Reason: "  "}}},
		{Outlet: "OutletA", Items: []ItemInput{{SKU: "MILK2002", Qty: 1, Reason: "ok"}, {SKU: "NOPE", Qty: 1, Reason: "ok"}}},
	}
	for _, tc := range cases {
		_, err := svc.Process(ctx, tc)
		require.ErrorIs(t, err, shared.ErrValidation)
	}
	require.Equal(t, before, mem.Version())
}

func TestHandlerProcess(t *testing.T) {
	svc, mem := newService(t)
	seed(t, mem, "OutletA", "MILK2002", 10, 2)
	router := chi.NewRouter()
	NewHandler(nil, svc, inventory.NewService(mem, mem.Locations(), nil)).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"outlet":"OutletA","items":[{"sku":"MILK2002","qty":3,"reason":"damaged"}]}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"doc_id":"RN1"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"outlet":"OutletA","items":[{"sku":"MILK2002","qty":3}]}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/returns?warehouse=Warehouse1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"reasons":["damaged"]`)
}
