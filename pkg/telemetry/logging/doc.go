// Package logging configures log/slog for the info server.
//
// Setup installs a JSON or text handler as the slog default. Every record
// gets the request_id and principal stored in its context by the HTTP
// middleware, and when telemetry.logging.redact_secrets is on, attributes
// named like credentials (password, token, secret, authorization...) are
// masked and "Bearer"/"Token" credentials are scrubbed from strings.
//
//	logger, err := logging.Setup(cfg.Telemetry.Logging, os.Stderr)
//	logger.InfoContext(ctx, "variable reserved", "variable_id", 12)
//
// Variable values never need to be logged; if they are, use the
// variable_value key so they are masked.
package logging
