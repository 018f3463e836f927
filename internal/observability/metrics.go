// Package observability exposes Prometheus metrics for the HTTP surface and
// the spare request workflow.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/movement"
)

const namespace = "sparecrm"

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	decisions       *prometheus.CounterVec
	approvedUnits   prometheus.Counter
	receptions      *prometheus.CounterVec
	ledgerClamps    *prometheus.CounterVec
	jobs            *prometheus.CounterVec
}

// NewMetrics initialises the registry and every collector.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spare_request_decisions_total",
			Help:      "Approve and reject attempts by outcome.",
		}, []string{"decision", "outcome"}),
		approvedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spare_approved_units_total",
			Help:      "Spare units dispatched by approvals.",
		}),
		receptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_receptions_total",
			Help:      "Delivery receptions by outcome and movement path.",
		}, []string{"outcome", "path"}),
		ledgerClamps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_clamped_decreases_total",
			Help:      "Ledger decreases clamped at zero.",
		}, []string{"bucket"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs processed by task type and outcome.",
		}, []string{"task", "outcome"}),
	}
	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.decisions,
		m.approvedUnits,
		m.receptions,
		m.ledgerClamps,
		m.jobs,
		prometheus.NewGoCollector(),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

// Middleware records count and latency for every request.
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

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// RecordDecision counts one approve or reject attempt.
func (m *Metrics) RecordDecision(decision, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision, outcome).Inc()
}

// AddApprovedUnits adds dispatched units.
func (m *Metrics) AddApprovedUnits(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.approvedUnits.Add(float64(n))
}

// RecordReception counts one reception; created marks the path that had to
// create the movement and move stock.
func (m *Metrics) RecordReception(outcome string, created bool) {
	if m == nil {
		return
	}
	path := "existing"
	if created {
		path = "created"
	}
	m.receptions.WithLabelValues(outcome, path).Inc()
}

// RecordLedgerClamp counts a decrease that was clamped at zero.
func (m *Metrics) RecordLedgerClamp(_ int64, _ location.Location, bucket movement.Bucket, _, _ int64) {
	if m == nil {
		return
	}
	m.ledgerClamps.WithLabelValues(string(bucket)).Inc()
}

// RecordJob counts a processed background task.
func (m *Metrics) RecordJob(task, outcome string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(task, outcome).Inc()
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
