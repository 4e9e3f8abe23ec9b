// Package telemetry groups the observability of the info server.
//
//   - logging: slog setup, request-scoped attributes and secret masking
//   - metrics: Prometheus collectors for requests, retention sweeps and variables
//   - health: liveness and readiness probes
package telemetry
