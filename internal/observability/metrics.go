package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the API and its domain services.
type Metrics struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	shortfallSeals   prometheus.Counter
	shortfallEvents  prometheus.Counter
	treasuryPostings *prometheus.CounterVec
	lowStockItems    prometheus.Gauge
}

// NewMetrics initialises the registry and the application collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealerp_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sealerp_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	shortfallSeals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sealerp_allocation_shortfall_seals_total",
		Help: "Seals requested on invoices that raw material could not cover.",
	})
	shortfallEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sealerp_allocation_shortfalls_total",
		Help: "Invoice items allocated only partially.",
	})
	postings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sealerp_treasury_postings_total",
		Help: "Treasury transactions by account and type.",
	}, []string{"account", "type"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sealerp_inventory_low_stock_items",
		Help: "Inventory items at or below their minimum stock after the last scan.",
	})
	registry.MustRegister(requests, duration, shortfallSeals, shortfallEvents, postings, lowStock)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		shortfallSeals:   shortfallSeals,
		shortfallEvents:  shortfallEvents,
		treasuryPostings: postings,
		lowStockItems:    lowStock,
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

// ObserveAllocationShortfall counts one under-allocated invoice item.
func (m *Metrics) ObserveAllocationShortfall(seals int) {
	if m == nil || seals <= 0 {
		return
	}
	m.shortfallEvents.Inc()
	m.shortfallSeals.Add(float64(seals))
}

// ObserveTreasuryPosting counts one ledger transaction.
func (m *Metrics) ObserveTreasuryPosting(account, txType string) {
	if m == nil {
		return
	}
	m.treasuryPostings.WithLabelValues(account, txType).Inc()
}

// SetLowStockItems publishes the result of a low-stock scan.
func (m *Metrics) SetLowStockItems(n int) {
	if m == nil {
		return
	}
	m.lowStockItems.Set(float64(n))
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
