package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"seleniumrobot/infoserver/pkg/config"
)

// SecurityState reports whether API security is currently enforced. It is
// read on every request so a configuration reload takes effect immediately.
type SecurityState interface {
	SecurityEnabled() bool
}

var errNoCredential = errors.New("authentication credentials were not provided")

// Middleware resolves the caller principal and rejects unauthenticated
// requests while security is enabled. With security disabled every request
// passes; a valid credential still attaches its principal.
type Middleware struct {
	security SecurityState
	logger   *slog.Logger

	mu      sync.RWMutex
	apiKeys *APIKeyValidator
	jwt     *JWTValidator
}

// NewMiddleware creates the authentication middleware from configuration.
func NewMiddleware(security SecurityState, cfg config.AuthenticationConfig) *Middleware {
	m := &Middleware{
		security: security,
		logger:   slog.Default().With("component", "auth"),
		apiKeys:  NewAPIKeyValidator(nil),
	}
	m.Reload(cfg)
	return m
}

// Reload replaces the key table and token settings.
func (m *Middleware) Reload(cfg config.AuthenticationConfig) {
	var jv *JWTValidator
	if cfg.JWT.Enabled {
		jv = NewJWTValidator(cfg.JWT)
	}

	m.apiKeys.Replace(APIKeysFromConfig(cfg.APIKeys))

	m.mu.Lock()
	m.jwt = jv
	m.mu.Unlock()
}

// Handle wraps an HTTP handler with authentication.
func (m *Middleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enabled := m.security.SecurityEnabled()

		principal, err := m.authenticate(r)
		if err != nil {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			if !errors.Is(err, errNoCredential) {
				m.logger.Warn("authentication failed",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		m.logger.Debug("authenticated",
			"principal", principal.Name,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// authenticate extracts a credential and resolves it. Bearer values that
// look like a JWT go to the token validator when it is configured; any other
// value is looked up in the API key table.
func (m *Middleware) authenticate(r *http.Request) (*Principal, error) {
	credential, scheme := extractCredential(r)
	if credential == "" {
		return nil, errNoCredential
	}

	m.mu.RLock()
	jv := m.jwt
	m.mu.RUnlock()

	if jv != nil && scheme == "Bearer" && strings.Count(credential, ".") == 2 {
		return jv.Authenticate(credential)
	}
	return m.apiKeys.Authenticate(credential)
}

// extractCredential reads "Authorization: Token <key>", "Authorization:
// Bearer <key>" or "X-API-Key: <key>".
func extractCredential(r *http.Request) (credential, scheme string) {
	if value := r.Header.Get("Authorization"); value != "" {
		for _, s := range []string{"Token", "Bearer"} {
			prefix := s + " "
			if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
				return strings.TrimSpace(value[len(prefix):]), s
			}
		}
	}
	if value := r.Header.Get("X-API-Key"); value != "" {
		return strings.TrimSpace(value), "X-API-Key"
	}
	return "", ""
}

// RequireForWrites returns middleware enforcing "<area>.add", "<area>.change"
// and "<area>.delete" for POST, PUT/PATCH and DELETE while security is
// enabled. Reads only need authentication.
func RequireForWrites(security SecurityState, area string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !security.SecurityEnabled() {
				next.ServeHTTP(w, r)
				return
			}
			action := ""
			switch r.Method {
			case http.MethodPost:
				action = "add"
			case http.MethodPut, http.MethodPatch:
				action = "change"
			case http.MethodDelete:
				action = "delete"
			}
			if action != "" {
				p, _ := PrincipalFromContext(r.Context())
				if !p.Has(AreaCapability(area, action)) {
					writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

type contextKey string

const principalKey contextKey = "principal"

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext retrieves the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
