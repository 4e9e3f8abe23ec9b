package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"seleniumrobot/infoserver/pkg/config"
)

// VariableMetrics tracks variable redaction and reservation.
type VariableMetrics struct {
	masked    prometheus.Counter
	reserved  prometheus.Counter
	conflicts prometheus.Counter
}

// NewVariableMetrics creates and registers variable metrics.
func NewVariableMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *VariableMetrics {
	m := &VariableMetrics{
		masked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "variables_masked_total",
			Help:      "Protected variable values replaced by the mask in responses",
		}),
		reserved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "variables_reserved_total",
			Help:      "Variables reserved by list requests",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "variables_reservation_conflicts_total",
			Help:      "List requests answered 423 because every candidate was reserved",
		}),
	}
	registry.MustRegister(m.masked, m.reserved, m.conflicts)
	return m
}
