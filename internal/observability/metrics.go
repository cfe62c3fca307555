package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odyssey-erp/stockflow/internal/documents"
)

// Metrics collects Prometheus metrics for the HTTP surface and stock flows.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	documentsIssued  *prometheus.CounterVec
	receivedValue    *prometheus.CounterVec
	shortages        *prometheus.CounterVec
	balanceOverrides *prometheus.CounterVec
}

// NewMetrics initialises the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockflow_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_documents_issued_total",
		Help: "Documents issued by type.",
	}, []string{"type"})
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_goods_received_value_total",
		Help: "Value of goods received against purchase orders per outlet.",
	}, []string{"outlet"})
	shortages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_transfer_shortages_total",
		Help: "Transfer lines that failed for lack of source stock.",
	}, []string{"source"})
	overrides := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_balance_overrides_total",
		Help: "Manual balance overwrites per location.",
	}, []string{"location"})
	registry.MustRegister(requests, duration, issued, received, shortages, overrides)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		documentsIssued:  issued,
		receivedValue:    received,
		shortages:        shortages,
		balanceOverrides: overrides,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// HandleDocumentsIssued counts committed documents by type.
func (m *Metrics) HandleDocumentsIssued(ctx context.Context, docs []documents.Document) error {
	if m == nil {
		return nil
	}
	for _, doc := range docs {
		m.documentsIssued.WithLabelValues(string(doc.Type)).Inc()
	}
	return nil
}

// ObserveGoodsReceived adds the value of a posted GRN.
func (m *Metrics) ObserveGoodsReceived(outlet string, value float64) {
	if m == nil || value <= 0 {
		return
	}
	m.receivedValue.WithLabelValues(outlet).Add(value)
}

// ObserveShortage counts a failed transfer line.
func (m *Metrics) ObserveShortage(source string) {
	if m == nil {
		return
	}
	m.shortages.WithLabelValues(source).Inc()
}

// ObserveBalanceOverride counts a manual balance overwrite.
func (m *Metrics) ObserveBalanceOverride(location string) {
	if m == nil {
		return
	}
	m.balanceOverrides.WithLabelValues(location).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
