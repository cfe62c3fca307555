package documents

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/stockflow/internal/shared"
)

type memoryRepo struct {
	registry *Registry
}

func (m *memoryRepo) ViewDocuments(ctx context.Context, fn func(*Registry) error) error {
	return fn(m.registry)
}

type stubConverter struct {
	html string
}

func (s *stubConverter) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	return []byte("%PDF-1.4"), nil
}

func issue(t *testing.T, r *Registry, typ Type, lines ...Line) Document {
	t.Helper()
	doc := Document{DocID: r.NextID(typ), Type: typ, Timestamp: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Ref: "PO1", Location: "OutletA", Items: lines}
	blob, err := Render(doc)
	require.NoError(t, err)
	require.NoError(t, r.Append(doc, blob))
	return doc
}

func TestRegistrySequentialIDsPerType(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, "GRN1", issue(t, r, TypeGRN, NewLine("MILK2002", 10, 2)).DocID)
	require.Equal(t, "GRN2", issue(t, r, TypeGRN, NewLine("MILK2002", 1, 2)).DocID)
	require.Equal(t, "DO1", issue(t, r, TypeDO, NewLine("MILK2002", 1, 2)).DocID)
	require.Len(t, r.List(TypeGRN), 2)
	require.Len(t, r.List(""), 3)

	r.Clear()
	require.Equal(t, 0, r.Len())
	require.Equal(t, "GRN3", r.NextID(TypeGRN))
}

func TestRegistryRejectsEmptyAndDuplicate(t *testing.T) {
	r := NewRegistry()
	require.ErrorIs(t, r.Append(Document{DocID: "GRN1", Type: TypeGRN}, nil), ErrEmptyDocument)
	doc := issue(t, r, TypeGRN, NewLine("MILK2002", 1, 1))
	require.Error(t, r.Append(doc, []byte("x")))

	_, err := r.Get("GRN9")
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = r.Blob("GRN9")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRegistryExportLoad(t *testing.T) {
	r := NewRegistry()
	issue(t, r, TypeTN, NewLine("BREAD1001", 5, 1.5))
	issue(t, r, TypeRN, Line{SKU: "MILK2002", Qty: 3, UnitCost: 2, TotalCost: 6, Reason: "damaged"})

	restored := NewRegistry()
	restored.Load(r.Export())
	doc, err := restored.Get("RN1")
	require.NoError(t, err)
	require.Equal(t, "damaged", doc.Items[0].Reason)
	require.Equal(t, "TN2", restored.NextID(TypeTN))
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "RM 1,234.50", FormatMoney(1234.5))
	require.Equal(t, "RM 0.07", FormatMoney(0.07))
	require.Equal(t, "RM 20.00", FormatMoney(20))
}

func TestPaginateOverflow(t *testing.T) {
	lines := make([]Line, 40)
	pages := Paginate(lines)
	require.Len(t, pages, 2)
	require.Len(t, pages[0], 38)
	require.Equal(t, rowStartY, pages[0][0])
	require.Equal(t, bottomLimit, pages[0][37])
	require.Len(t, pages[1], 2)
	require.Equal(t, rowStartY, pages[1][0])
}

func TestRenderIncludesLines(t *testing.T) {
	lines := make([]Line, 0, 39)
	for i := 0; i < 39; i++ {
		lines = append(lines, NewLine(fmt.Sprintf("SKU%02d", i), 1, 1234.5))
	}
	out, err := Render(Document{DocID: "RN1", Type: TypeRN, Location: "OutletA", Warehouse: "Warehouse1", Items: lines})
	require.NoError(t, err)
	html := string(out)
	require.Contains(t, html, "Return Note")
	require.Contains(t, html, "SKU38")
	require.Contains(t, html, "RM 1,234.50")
	require.Equal(t, 2, strings.Count(html, `class="page"`))

	_, err = Render(Document{DocID: "GRN1", Type: TypeGRN})
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestServicePDF(t *testing.T) {
	r := NewRegistry()
	issue(t, r, TypeGRN, NewLine("MILK2002", 10, 2))
	conv := &stubConverter{}
	svc := NewService(&memoryRepo{registry: r}, conv)

	pdf, err := svc.PDF(context.Background(), "GRN1")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(pdf))
	require.Contains(t, conv.html, "Goods Received Note")

	_, err = NewService(&memoryRepo{registry: r}, nil).PDF(context.Background(), "GRN1")
	require.ErrorIs(t, err, ErrPDFUnavailable)

	_, err = svc.List(context.Background(), "XX")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestHandlerRoutes(t *testing.T) {
	r := NewRegistry()
	issue(t, r, TypeGRN, NewLine("MILK2002", 10, 2))
	router := chi.NewRouter()
	NewHandler(nil, NewService(&memoryRepo{registry: r}, nil)).MountRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/GRN1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"doc_id":"GRN1"`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/GRN1/blob", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "MILK2002")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/TN4", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/documents/GRN1/pdf", nil))
	require.Equal(t, http.StatusNotImplemented, rr.Code)
}
