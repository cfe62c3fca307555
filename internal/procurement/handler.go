package procurement

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/orders"
	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler manages procurement endpoints.
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

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/procurement/pos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/submit", h.handleSubmit)
		r.Post("/{id}/approve", h.handleApprove)
		r.Post("/{id}/receive", h.handleReceive)
	})
}

type dateRequest struct {
	At *time.Time `json:"at,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.List(r.Context(), ListFilter{Status: orders.State(r.URL.Query().Get("status"))})
	if err != nil {
		h.logger.Error("list POs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_orders": pos})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input CreatePOInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("create PO failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("purchase order created", slog.String("po_id", po.ID), slog.String("outlet", po.Outlet))
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.Submit(r.Context(), chi.URLParam(r, "id"))
	h.respondTransition(w, "submit", po, err)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := httpx.DecodeOptional(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.Approve(r.Context(), chi.URLParam(r, "id"), req.At)
	h.respondTransition(w, "approve", po, err)
}

func (h *Handler) handleReceive(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := httpx.DecodeOptional(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	po, err := h.service.Receive(r.Context(), chi.URLParam(r, "id"), req.At)
	h.respondTransition(w, "receive", po, err)
}

func (h *Handler) respondTransition(w http.ResponseWriter, action string, po *orders.PurchaseOrder, err error) {
	if err != nil && po == nil {
		h.logger.Warn("PO "+action+" failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if err != nil {
		h.logger.Error("PO "+action+" integration failed", slog.String("po_id", po.ID), slog.Any("error", err))
	}
	h.logger.Info("purchase order "+action, slog.String("po_id", po.ID), slog.String("status", po.Status.String()))
	httpx.JSON(w, http.StatusOK, po)
}
