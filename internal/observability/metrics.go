// Package observability exports domain metrics: upstream request
// outcomes, retry counts, refresh loop health, and cache effectiveness.
// HTTP-level metrics are handled separately by the OpenTelemetry
// middleware.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jacobhausler/weather-app-sub000/internal/cache"
)

const namespace = "weatherdash"

// Metrics implements the observer hooks of the upstream executor and the
// refresh controller, backed by a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamRetries  *prometheus.CounterVec
	refreshRuns      *prometheus.CounterVec
	refreshPaused    prometheus.Gauge
}

// NewMetrics creates and registers the metric instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream HTTP requests by service and outcome.",
		}, []string{"upstream", "outcome"}),
		upstreamRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_retries_total",
			Help:      "Upstream request retries by service.",
		}, []string{"upstream"}),
		refreshRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_runs_total",
			Help:      "Background refresh runs by outcome.",
		}, []string{"outcome"}),
		refreshPaused: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_paused_sessions",
			Help:      "Sessions whose refresh loop is currently paused.",
		}),
	}
	registry.MustRegister(m.upstreamRequests, m.upstreamRetries, m.refreshRuns, m.refreshPaused)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// UpstreamRequest records one completed upstream request.
func (m *Metrics) UpstreamRequest(upstream, outcome string) {
	m.upstreamRequests.WithLabelValues(upstream, outcome).Inc()
}

// UpstreamRetry records one retried upstream attempt.
func (m *Metrics) UpstreamRetry(upstream string) {
	m.upstreamRetries.WithLabelValues(upstream).Inc()
}

// RefreshRun records one refresh loop run.
func (m *Metrics) RefreshRun(outcome string) {
	m.refreshRuns.WithLabelValues(outcome).Inc()
}

// RefreshPaused tracks pause flips across sessions.
func (m *Metrics) RefreshPaused(paused bool) {
	if paused {
		m.refreshPaused.Inc()
	} else {
		m.refreshPaused.Dec()
	}
}

// RegisterCacheStats exposes a cache's keys, hits, and misses as gauges
// sampled at scrape time.
func (m *Metrics) RegisterCacheStats(name string, stats func() cache.Stats) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_keys",
			Help:        "Live entries in the cache.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Keys) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_hits_total",
			Help:        "Cumulative cache hits.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "cache_misses_total",
			Help:        "Cumulative cache misses.",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
	)
}

// RegisterSessionCount exposes the live session count.
func (m *Metrics) RegisterSessionCount(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_live",
		Help:      "Sessions currently held by the session manager.",
	}, func() float64 { return float64(count()) }))
}
