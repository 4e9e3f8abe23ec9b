package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo/retention"
)

// RetentionMetrics tracks element-info retention sweeps.
//
// Metrics:
//   - <ns>_<sub>_retention_sweeps_total
//   - <ns>_<sub>_retention_records_deleted_total
//   - <ns>_<sub>_retention_delete_failures_total
//   - <ns>_<sub>_retention_sweep_duration_seconds
type RetentionMetrics struct {
	sweeps   prometheus.Counter
	deleted  prometheus.Counter
	failures prometheus.Counter
	duration prometheus.Histogram
}

// NewRetentionMetrics creates and registers retention metrics.
func NewRetentionMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RetentionMetrics {
	m := &RetentionMetrics{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retention_sweeps_total",
			Help:      "Number of element-info retention sweeps run",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retention_records_deleted_total",
			Help:      "Element-info records deleted by retention sweeps",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retention_delete_failures_total",
			Help:      "Expired element-info records a sweep failed to delete",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "retention_sweep_duration_seconds",
			Help:      "Duration of element-info retention sweeps in seconds",
			Buckets:   cfg.RequestDurationBuckets,
		}),
	}
	registry.MustRegister(m.sweeps, m.deleted, m.failures, m.duration)
	return m
}

// Observe records one sweep.
func (m *RetentionMetrics) Observe(result retention.SweepResult, duration time.Duration) {
	m.sweeps.Inc()
	m.deleted.Add(float64(result.Deleted))
	m.failures.Add(float64(result.Failed))
	m.duration.Observe(duration.Seconds())
}
