// Package metrics exposes Prometheus metrics for the info server: served
// requests, element-info retention sweeps, masked protected values and
// variable reservations.
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	sweeper := retention.NewSweeper(store, window, retention.WithObserver(collector))
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
package metrics
