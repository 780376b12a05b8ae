package metrics

import (
	"net/http"
	"strconv"
	"time"

	"backoffice/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "backoffice"

// Metrics owns a private registry, one per server
type Metrics struct {
	registry          *prometheus.Registry
	stockMovements    *prometheus.CounterVec
	stockUnits        *prometheus.CounterVec
	reconcileFailures *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Committed and attempted stock mutations by source and direction.",
		}, []string{"source", "direction"}),
		stockUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_units_total",
			Help:      "Units moved in or out of stock by source.",
		}, []string{"source", "direction"}),
		reconcileFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_failures_total",
			Help:      "Stock reconciliations that aborted their transaction.",
		}, []string{"kind", "reason"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stockMovements,
		m.stockUnits,
		m.reconcileFailures,
		m.httpDuration,
	)
	return m
}

// StockMoved counts one stock mutation. The movement may still roll back
// with its transaction.
func (m *Metrics) StockMoved(source domain.MovementSource, quantity int) {
	direction := "in"
	units := quantity
	if quantity < 0 {
		direction = "out"
		units = -quantity
	}
	m.stockMovements.WithLabelValues(string(source), direction).Inc()
	m.stockUnits.WithLabelValues(string(source), direction).Add(float64(units))
}

func (m *Metrics) ReconcileFailed(kind, reason string) {
	m.reconcileFailures.WithLabelValues(kind, reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request latency labelled by the matched chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
