package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo/retention"
)

// Collector owns the Prometheus registry and every metric of the server.
// When metrics are disabled every Record/Observe method is a no-op.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	http      *HTTPMetrics
	retention *RetentionMetrics
	variables *VariableMetrics
}

// NewCollector creates a collector registering on registry, or on a fresh
// registry when nil. Go runtime and process collectors are included.
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = config.DefaultRequestDurationBuckets
	}

	return &Collector{
		config:    cfg,
		registry:  registry,
		http:      NewHTTPMetrics(cfg, registry),
		retention: NewRetentionMetrics(cfg, registry),
		variables: NewVariableMetrics(cfg, registry),
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Enabled reports whether metrics are recorded.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// RecordHTTPRequest records a served request. route is the registered
// pattern, not the raw path, to bound cardinality.
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.http.Record(method, route, status, duration)
}

// ObserveSweep implements retention.Observer.
func (c *Collector) ObserveSweep(result retention.SweepResult, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.retention.Observe(result, duration)
}

// ObserveMasked implements variables.MaskObserver.
func (c *Collector) ObserveMasked(count int) {
	if !c.config.Enabled {
		return
	}
	c.variables.masked.Add(float64(count))
}

// RecordReservation counts reserved variables and lost reservations.
func (c *Collector) RecordReservation(reserved int, conflict bool) {
	if !c.config.Enabled {
		return
	}
	if reserved > 0 {
		c.variables.reserved.Add(float64(reserved))
	}
	if conflict {
		c.variables.conflicts.Inc()
	}
}

var _ retention.Observer = (*Collector)(nil)
