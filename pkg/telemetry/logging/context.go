package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// PrincipalKey is the context key for the authenticated principal name.
	PrincipalKey contextKey = "principal"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithPrincipal adds the principal name to the context.
func WithPrincipal(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, PrincipalKey, name)
}

// GetPrincipal retrieves the principal name from the context.
func GetPrincipal(ctx context.Context) string {
	if name, ok := ctx.Value(PrincipalKey).(string); ok {
		return name
	}
	return ""
}

func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if requestID := GetRequestID(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if principal := GetPrincipal(ctx); principal != "" {
		attrs = append(attrs, slog.String("principal", principal))
	}
	return attrs
}

// FromContext returns the default logger with the context fields attached,
// for code paths that log without passing ctx to every call.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	for _, a := range contextAttrs(ctx) {
		logger = logger.With(a)
	}
	return logger
}
