// Package http provides the HTTP transport adapter for the guardrail engine.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the guardrail engine. Pass to
// components that need to record metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	VerdictsTotal    *prometheus.CounterVec
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
	WorkerPoolDepth  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "textguard",
				Name:      "requests_total",
				Help:      "Total number of check requests processed",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "textguard",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		VerdictsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "textguard",
				Name:      "verdicts_total",
				Help:      "Total evaluation verdicts by status",
			},
			[]string{"status"}, // safe/violation/unsafe/warning/error/invalid
		),
		CacheHitsTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "textguard",
				Name:      "cache_hits_total",
				Help:      "Total result cache hits",
			},
		),
		CacheMissesTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "textguard",
				Name:      "cache_misses_total",
				Help:      "Total result cache misses",
			},
		),
		WorkerPoolDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "textguard",
				Name:      "worker_pool_queue_depth",
				Help:      "Number of matcher jobs currently queued or running",
			},
		),
	}
}
