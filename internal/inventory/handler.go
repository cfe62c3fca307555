package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/inventory/balances", h.handleBalances)
	r.Put("/inventory/balances/{location}/{sku}", h.handleSetBalance)
	r.Get("/inventory/returns", h.handleReturns)
}

type balanceView struct {
	Balance
	TotalCost float64 `json:"total_cost"`
}

type setBalanceRequest struct {
	Qty      *int64   `json:"qty" validate:"required,gte=0"`
	UnitCost *float64 `json:"unit_cost" validate:"required,gte=0"`
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	balances, err := h.service.Balances(r.Context(), BalanceFilter{Location: q.Get("location"), SKU: q.Get("sku")})
	if err != nil {
		h.logger.Error("list balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	rows := make([]balanceView, 0, len(balances))
	for _, bal := range balances {
		rows = append(rows, balanceView{Balance: bal, TotalCost: bal.TotalCost()})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balances": rows})
}

func (h *Handler) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	var req setBalanceRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	bal, err := h.service.SetBalance(r.Context(), AdjustmentInput{
		Location: chi.URLParam(r, "location"),
		SKU:      chi.URLParam(r, "sku"),
		Qty:      *req.Qty,
		UnitCost: *req.UnitCost,
	})
	if err != nil {
		h.logger.Warn("set balance failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("balance overwritten",
		slog.String("location", bal.Location),
		slog.String("sku", bal.SKU),
		slog.Int64("qty", bal.Qty),
		slog.Float64("unit_cost", bal.UnitCost))
	httpx.JSON(w, http.StatusOK, balanceView{Balance: bal, TotalCost: bal.TotalCost()})
}

func (h *Handler) handleReturns(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Returns(r.Context(), r.URL.Query().Get("warehouse"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"returns": entries})
}
