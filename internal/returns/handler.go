package returns

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler serves stock return endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	inventory *inventory.Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, inv *inventory.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, inventory: inv}
}

// MountRoutes registers return routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/returns", h.handleList)
	r.Post("/returns", h.handleProcess)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.inventory.Returns(r.Context(), r.URL.Query().Get("warehouse"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"returns": entries})
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	var input ReturnInput
	if err := httpx.DecodeAndValidate(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Process(r.Context(), input)
	if err != nil {
		h.logger.Warn("stock return failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock returned",
		slog.String("doc_id", result.DocID),
		slog.String("outlet", result.Outlet),
		slog.String("warehouse", result.Warehouse),
		slog.Int("lines", len(result.Lines)))
	httpx.JSON(w, http.StatusCreated, result)
}
