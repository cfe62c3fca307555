package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/odyssey-erp/stockflow/internal/audit/http"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/observability"
	"github.com/odyssey-erp/stockflow/internal/platform/httpx"
	"github.com/odyssey-erp/stockflow/internal/procurement"
	"github.com/odyssey-erp/stockflow/internal/returns"
	"github.com/odyssey-erp/stockflow/internal/transfer"
	"github.com/odyssey-erp/stockflow/jobs"
	"github.com/odyssey-erp/stockflow/report"
)

// Resetter empties the operational state.
type Resetter interface {
	Reset(ctx context.Context) error
}

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Resetter           Resetter
	CatalogHandler     *catalog.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	TransferHandler    *transfer.Handler
	ReturnsHandler     *returns.Handler
	AuditHandler       *audithttp.Handler
	DocumentsHandler   *documents.Handler
	ReportHandler      *report.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	if params.Resetter != nil {
		r.Post("/admin/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := params.Resetter.Reset(r.Context()); err != nil {
				params.Logger.Error("reset state", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			params.Logger.Warn("state reset")
			w.WriteHeader(http.StatusNoContent)
		})
	}

	mounters := []interface{ MountRoutes(chi.Router) }{}
	if params.CatalogHandler != nil {
		mounters = append(mounters, params.CatalogHandler)
	}
	if params.InventoryHandler != nil {
		mounters = append(mounters, params.InventoryHandler)
	}
	if params.ProcurementHandler != nil {
		mounters = append(mounters, params.ProcurementHandler)
	}
	if params.TransferHandler != nil {
		mounters = append(mounters, params.TransferHandler)
	}
	if params.ReturnsHandler != nil {
		mounters = append(mounters, params.ReturnsHandler)
	}
	if params.AuditHandler != nil {
		mounters = append(mounters, params.AuditHandler)
	}
	if params.DocumentsHandler != nil {
		mounters = append(mounters, params.DocumentsHandler)
	}
	if params.ReportHandler != nil {
		mounters = append(mounters, params.ReportHandler)
	}
	if params.JobHandler != nil {
		mounters = append(mounters, params.JobHandler)
	}
	for _, m := range mounters {
		m.MountRoutes(r)
	}
	return r
}
