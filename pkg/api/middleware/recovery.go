package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"seleniumrobot/infoserver/pkg/telemetry/logging"
)

// Recovery turns a handler panic into a 500 with a generic detail. The
// panic and stack are logged, never sent to the client. http.ErrAbortHandler
// is re-raised so net/http can drop the connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logging.FromContext(r.Context()).ErrorContext(r.Context(), "panic in handler",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "A server error occurred."})
		}()

		next.ServeHTTP(w, r)
	})
}
