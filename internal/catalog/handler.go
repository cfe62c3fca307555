package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler exposes item master and location endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/skus", h.listSKUs)
		r.Post("/skus", h.addSKU)
		r.Put("/skus/{sku}", h.setCost)
		r.Get("/locations", h.listLocations)
	})
}

type addSKURequest struct {
	SKU      string  `json:"sku" validate:"required"`
	UnitCost float64 `json:"unit_cost" validate:"required,gt=0"`
}

type setCostRequest struct {
	UnitCost float64 `json:"unit_cost" validate:"required,gt=0"`
}

func (h *Handler) listSKUs(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Items(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) addSKU(w http.ResponseWriter, r *http.Request) {
	var req addSKURequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.AddSKU(r.Context(), req.SKU, req.UnitCost)
	if err != nil {
		h.logger.Warn("add sku failed", slog.String("sku", req.SKU), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) setCost(w http.ResponseWriter, r *http.Request) {
	var req setCostRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.SetCost(r.Context(), chi.URLParam(r, "sku"), req.UnitCost)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locs := h.service.Locations()
	httpx.JSON(w, http.StatusOK, map[string]any{
		"locations":         locs.All(),
		"returns_warehouse": locs.ReturnsWarehouse(),
	})
}
