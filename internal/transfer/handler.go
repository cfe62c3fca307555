package transfer

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler manages transfer order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers transfer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/submit", h.handleSubmit)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/fulfill", h.handleFulfill)
		r.Post("/{id}/receive", h.handleReceive)
	})
}

type dateRequest struct {
	At *time.Time `json:"at,omitempty"`
}

type quantityRequest struct {
	Items map[string]int64 `json:"items" validate:"required,min=1"`
	At    *time.Time       `json:"at,omitempty"`
}

type orderView struct {
	*orders.TransferOrder
	Lines []orders.LineProgress `json:"lines"`
}

func view(to *orders.TransferOrder) orderView {
	return orderView{TransferOrder: to, Lines: to.Lines()}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tos, err := h.service.List(r.Context(), ListFilter{Status: orders.State(r.URL.Query().Get("status"))})
	if err != nil {
		h.logger.Error("list TOs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]orderView, 0, len(tos))
	for _, to := range tos {
		rows = append(rows, view(to))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transfer_orders": rows})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreateTOInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create TO failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("transfer order created", slog.String("to_id", to.ID), slog.String("source", to.Source), slog.String("destination", to.Destination))
	httpx.JSON(w, http.StatusCreated, view(to))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	to, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view(to))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	to, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	h.respondTransition(w, "submit", to, err)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := httpx.DecodeOptional(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), req.At)
	h.respondTransition(w, "approve", to, err)
}

func (h *Handler) handleFulfill(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Fulfill(r.Context(), chi.URLParam(r, "id"), req.Items, req.At)
	if err != nil && result.Order == nil {
		h.logger.Warn("TO fulfill failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("TO shortage integration failed", slog.String("to_id", result.Order.ID), slog.Any("error", err))
	}
	for _, short := range result.Shortage {
		h.logger.Warn("insufficient stock at source",
			slog.String("to_id", result.Order.ID),
			slog.String("sku", short.SKU),
			slog.Int64("required", short.Required),
			slog.Int64("available", short.Available))
	}
	h.logger.Info("transfer order fulfill", slog.String("to_id", result.Order.ID), slog.String("status", result.Order.Status.String()), slog.String("doc_id", result.DocID))
	httpx.JSON(w, http.StatusOK, map[string]any{
		"order":    view(result.Order),
		"doc_id":   result.DocID,
		"shipped":  result.Shipped,
		"shortage": result.Shortage,
	})
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := h.service.Receive(r.Context(), chi.URLParam(r, "id"), req.Items, req.At)
	h.respondTransition(w, "receive", to, err)
}

func (h *Handler) respondTransition(w http.ResponseWriter, action string, to *orders.TransferOrder, err error) {
	if err != nil {
		h.logger.Warn("TO "+action+" failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("transfer order "+action, slog.String("to_id", to.ID), slog.String("status", to.Status.String()))
	httpx.JSON(w, http.StatusOK, view(to))
}
