// Package metrics defines Prometheus counters and histograms for the
// external-collaborator layer (directory cache, projection, composition).
// Callers report events through its Record* and SetCacheSize methods;
// dircache, project and compose do not call it themselves. The core codec
// packages (header, directory, value, record) stay allocation-lean and are
// never instrumented directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the Prometheus collectors for one engine instance.
type Metrics struct {
	cacheHitsTotal   prometheus.Counter
	cacheMissesTotal prometheus.Counter
	cacheSize        prometheus.Gauge

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	operationBytes    *prometheus.HistogramVec
}

// New creates and registers the engine's Prometheus collectors against
// reg. Pass prometheus.NewRegistry() for an isolated registry in tests,
// or prometheus.DefaultRegisterer in production.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "imprint_dircache_hits_total",
			Help: "Total number of directory cache hits.",
		}),
		cacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "imprint_dircache_misses_total",
			Help: "Total number of directory cache misses.",
		}),
		cacheSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "imprint_dircache_entries",
			Help: "Number of directories currently cached.",
		}),
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "imprint_operations_total",
			Help: "Total number of project/compose operations.",
		}, []string{"operation", "status"}),
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imprint_operation_duration_seconds",
			Help:    "Duration of project/compose operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		operationBytes: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imprint_operation_output_bytes",
			Help:    "Output size in bytes of project/compose operations.",
			Buckets: prometheus.ExponentialBuckets(32, 2, 12),
		}, []string{"operation"}),
	}
}

// RecordCacheHit increments the directory cache hit counter.
func (m *Metrics) RecordCacheHit() { m.cacheHitsTotal.Inc() }

// RecordCacheMiss increments the directory cache miss counter.
func (m *Metrics) RecordCacheMiss() { m.cacheMissesTotal.Inc() }

// SetCacheSize reports the current number of cached directories.
func (m *Metrics) SetCacheSize(n int) { m.cacheSize.Set(float64(n)) }

// RecordOperation records one project or compose call: its outcome,
// wall-clock duration, and output size in bytes.
func (m *Metrics) RecordOperation(operation string, err error, duration time.Duration, outputBytes int) {
	status := statusSuccess
	if err != nil {
		status = statusError
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		m.operationBytes.WithLabelValues(operation).Observe(float64(outputBytes))
	}
}
