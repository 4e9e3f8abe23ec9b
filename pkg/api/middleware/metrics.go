package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder receives one observation per request.
type RequestRecorder interface {
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

// Metrics records request count and latency labelled by route pattern.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, info := withRouteSlot(r.Context())
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r.WithContext(ctx))

			recorder.RecordHTTPRequest(r.Method, info.route(), sw.status, time.Since(start))
		})
	}
}
