// Package health implements the liveness and readiness probes of the info
// server. Readiness pings the record store; liveness only proves the
// process answers.
package health
