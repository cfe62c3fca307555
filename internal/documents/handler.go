package documents

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
)

// Handler serves the document registry.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the documents handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/documents", h.handleList)
	r.Get("/documents/{id}", h.handleGet)
	r.Get("/documents/{id}/blob", h.handleBlob)
	r.Get("/documents/{id}/pdf", h.handlePDF)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context(), Type(r.URL.Query().Get("type")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) handleBlob(w http.ResponseWriter, r *http.Request) {
	blob, err := h.service.Blob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(blob); err != nil {
		h.logger.Warn("write document blob", slog.Any("error", err))
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pdf, err := h.service.PDF(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPDFUnavailable) {
			http.Error(w, "PDF export unavailable", http.StatusNotImplemented)
			return
		}
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("render document pdf", slog.String("doc_id", id), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+id+".pdf")
	if _, err := w.Write(pdf); err != nil {
		h.logger.Warn("write document pdf", slog.Any("error", err))
	}
}
