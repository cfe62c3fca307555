package app

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/stockflow/internal/audit"
	audithttp "github.com/odyssey-erp/stockflow/internal/audit/http"
	"github.com/odyssey-erp/stockflow/internal/catalog"
	"github.com/odyssey-erp/stockflow/internal/documents"
	"github.com/odyssey-erp/stockflow/internal/integration"
	"github.com/odyssey-erp/stockflow/internal/inventory"
	"github.com/odyssey-erp/stockflow/internal/observability"
	"github.com/odyssey-erp/stockflow/internal/procurement"
	"github.com/odyssey-erp/stockflow/internal/returns"
	"github.com/odyssey-erp/stockflow/internal/shared"
	"github.com/odyssey-erp/stockflow/internal/store"
	"github.com/odyssey-erp/stockflow/internal/transfer"
	"github.com/odyssey-erp/stockflow/jobs"
	"github.com/odyssey-erp/stockflow/report"
)

// APIDeps collects what the HTTP API needs. Converter, ReportHandler and
// JobHandler are optional.
type APIDeps struct {
	Logger        *slog.Logger
	Config        *Config
	Store         *store.Memory
	Metrics       *observability.Metrics
	Clock         shared.Clock
	Converter     documents.Converter
	ReportHandler *report.Handler
	JobHandler    *jobs.Handler
}

// NewAPI wires services and handlers over the store and returns the router.
func NewAPI(deps APIDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mem := deps.Store
	if deps.Metrics != nil {
		mem.AddDocumentHook(deps.Metrics)
	}
	var recorder integration.Recorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
	}
	hooks := integration.NewHooks(logger, recorder)

	catalogService := catalog.NewService(mem, mem.Locations(), logger)
	inventoryService := inventory.NewService(mem, mem.Locations(), hooks)
	procurementService := procurement.NewService(mem, deps.Clock, hooks)
	transferService := transfer.NewService(mem, deps.Clock, hooks)
	returnsService := returns.NewService(mem, deps.Clock)
	auditService := audit.NewService(mem)
	documentsService := documents.NewService(mem, deps.Converter)

	return NewRouter(RouterParams{
		Logger:             logger,
		Config:             deps.Config,
		Resetter:           mem,
		CatalogHandler:     catalog.NewHandler(logger, catalogService),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService),
		ProcurementHandler: procurement.NewHandler(logger, procurementService),
		TransferHandler:    transfer.NewHandler(logger, transferService),
		ReturnsHandler:     returns.NewHandler(logger, returnsService, inventoryService),
		AuditHandler:       audithttp.NewHandler(logger, auditService, audit.NewExporter()),
		DocumentsHandler:   documents.NewHandler(logger, documentsService),
		ReportHandler:      deps.ReportHandler,
		JobHandler:         deps.JobHandler,
		Metrics:            deps.Metrics,
	})
}
