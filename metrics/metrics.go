// Package metrics exposes Prometheus collectors for the gateway.
//
// Metrics owns a private registry so tests and multiple servers in one
// process never collide on the default registerer. A nil *Metrics is valid
// and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stowgate"

// Metrics holds the gateway collectors.
type Metrics struct {
	reg      *prometheus.Registry
	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry and registers collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by status code and method.",
		}, []string{"code", "method"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "outcomes_total",
			Help:      "Resolved gateway outcomes by kind.",
		}, []string{"kind"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Response cache lookups and writes by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.inflight, m.requests, m.latency, m.outcomes, m.cache)
	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler returns an http.Handler that serves Prometheus metrics using the internal registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveOutcome counts a resolved gateway outcome.
func (m *Metrics) ObserveOutcome(kind string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(kind).Inc()
}

// Cache event results.
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheStored  = "stored"
	CacheSkipped = "skipped"
	CacheError   = "error"
)

// ObserveCache counts a response cache event.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}

// statusRecorder captures the HTTP status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware collects the inflight gauge, the request counter and the
// latency histogram.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		code := strconv.Itoa(rec.status)
		m.requests.WithLabelValues(code, r.Method).Inc()
		m.latency.WithLabelValues(code, r.Method).Observe(time.Since(start).Seconds())
	})
}
