package middleware

import (
	"context"
	"net/http"
)

// UnmatchedRoute labels requests answered before reaching the router, such
// as authentication failures.
const UnmatchedRoute = "unmatched"

type routeKey struct{}

type routeInfo struct {
	pattern string
}

// withRouteSlot installs a slot that CaptureRoute fills with the matched
// pattern, so outer middleware can label requests by route.
func withRouteSlot(ctx context.Context) (context.Context, *routeInfo) {
	if info, ok := ctx.Value(routeKey{}).(*routeInfo); ok {
		return ctx, info
	}
	info := &routeInfo{}
	return context.WithValue(ctx, routeKey{}, info), info
}

func (i *routeInfo) route() string {
	if i.pattern == "" {
		return UnmatchedRoute
	}
	return i.pattern
}

// CaptureRoute wraps the router. After the router served the request its
// matched pattern is recorded for Logging and Metrics.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if info, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
				info.pattern = r.Pattern
			}
		}()
		mux.ServeHTTP(w, r)
	})
}
