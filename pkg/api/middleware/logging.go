package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"seleniumrobot/infoserver/pkg/security/auth"
	"seleniumrobot/infoserver/pkg/telemetry/logging"
)

type principalKey struct{}

type principalSlot struct {
	name string
}

// Logging logs one record per request. Client errors log at warn and
// server errors at error.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, info := withRouteSlot(r.Context())
		principal := &principalSlot{}
		ctx = context.WithValue(ctx, principalKey{}, principal)
		sw := newStatusWriter(w)

		logger := logging.FromContext(ctx)
		logger.DebugContext(ctx, "request started",
			"method", r.Method,
			"path", r.URL.Path,
		)

		next.ServeHTTP(sw, r.WithContext(ctx))

		level := slog.LevelInfo
		switch {
		case sw.status >= 500:
			level = slog.LevelError
		case sw.status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", info.route(),
			"status", sw.status,
			"bytes", sw.written,
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if principal.name != "" {
			attrs = append(attrs, "principal", principal.name)
		}
		logger.Log(ctx, level, "request completed", attrs...)
	})
}

// Principal runs after authentication. It adds the authenticated principal
// to the log context of the handlers and to the Logging record.
func Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if slot, ok := r.Context().Value(principalKey{}).(*principalSlot); ok {
			slot.name = p.Name
		}
		next.ServeHTTP(w, r.WithContext(logging.WithPrincipal(r.Context(), p.Name)))
	})
}
