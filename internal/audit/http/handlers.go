package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/stockflow/internal/audit"
	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
	"github.com/odyssey-erp/stockflow/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	dateLayout      = "2006-01-02"
)

// HistoryService defines the business contract for cost history data.
type HistoryService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.Record, error)
	Summary(ctx context.Context, filters audit.TimelineFilters) ([]audit.SummaryRow, error)
}

// Exporter writes cost history exports.
type Exporter interface {
	WriteCSV(rows []audit.Record) ([]byte, error)
	WriteXLSX(rows []audit.Record) ([]byte, error)
}

// Handler menangani permintaan cost history.
type Handler struct {
	logger   *slog.Logger
	service  HistoryService
	exporter Exporter
}

// NewHandler membuat handler cost history baru.
func NewHandler(logger *slog.Logger, service HistoryService, exporter Exporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exporter: exporter}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load cost history", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Summary(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "load cost summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", "cost-history.csv", h.exporter.WriteCSV)
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "cost-history.xlsx", h.exporter.WriteXLSX)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, contentType, filename string, write func([]audit.Record) ([]byte, error)) {
	filters, err := parseFilters(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.handleServerError(w, "export cost history", err)
		return
	}
	body, err := write(rows)
	if err != nil {
		h.handleServerError(w, "encode export", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write export", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	q := r.URL.Query()
	var filters audit.TimelineFilters
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		from, err := time.Parse(dateLayout, v)
		if err != nil {
			return filters, validationError{field: "from"}
		}
		filters.From = from
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		to, err := time.Parse(dateLayout, v)
		if err != nil {
			return filters, validationError{field: "to"}
		}
		// inclusive end of day
		filters.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.From.After(filters.To) {
		return filters, validationError{field: "range"}
	}
	switch t := audit.RecordType(strings.ToUpper(strings.TrimSpace(q.Get("type")))); t {
	case "", audit.TypeGRN, audit.TypeTN, audit.TypeReturn:
		filters.Type = t
	default:
		return filters, validationError{field: "type"}
	}
	filters.Location = strings.TrimSpace(q.Get("location"))
	filters.SKU = strings.TrimSpace(q.Get("sku"))

	filters.Page = 1
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return filters, validationError{field: "page"}
		}
		filters.Page = parsed
	}
	filters.PageSize = defaultPageSize
	if v := strings.TrimSpace(q.Get("page_size")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			return filters, validationError{field: "page_size"}
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		filters.PageSize = parsed
	}
	return filters, nil
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.RespondError(w, err)
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return "cost history: invalid filter " + v.field
}

func (validationError) Unwrap() error {
	return shared.ErrValidation
}

