package api

import (
	"net/http"
	"time"

	"seleniumrobot/infoserver/pkg/api/middleware"
	"seleniumrobot/infoserver/pkg/commons"
	"seleniumrobot/infoserver/pkg/config"
	"seleniumrobot/infoserver/pkg/elementinfo"
	"seleniumrobot/infoserver/pkg/elementinfo/retention"
	"seleniumrobot/infoserver/pkg/security/auth"
	"seleniumrobot/infoserver/pkg/telemetry/health"
	"seleniumrobot/infoserver/pkg/telemetry/metrics"
	"seleniumrobot/infoserver/pkg/variables"
)

// Deps wires the API to its stores and policies. Health and Metrics are
// optional.
type Deps struct {
	Config *config.Holder

	Commons   commons.Store
	Elements  elementinfo.Store
	Sweeper   *retention.Sweeper
	Variables variables.Store

	Resolver   *variables.Resolver
	Redactor   *variables.Redactor
	Visibility *variables.Visibility

	Auth    *auth.Middleware
	Health  *health.Checker
	Metrics *metrics.Collector
}

// API serves the commons, element info and variable areas.
type API struct {
	deps Deps
	mux  *http.ServeMux
}

// New builds the API and registers every route.
func New(deps Deps) *API {
	a := &API{deps: deps, mux: http.NewServeMux()}

	a.mux.HandleFunc("GET /variable/api", a.ping)
	a.mux.HandleFunc("GET /variable/api/{$}", a.ping)
	if deps.Health != nil {
		deps.Health.Register(a.mux)
	}
	if deps.Metrics != nil && deps.Metrics.Enabled() {
		a.mux.Handle("GET "+deps.Config.Get().Telemetry.Metrics.Path, deps.Metrics.Handler())
	}

	a.registerCommons()
	a.registerElementInfo()
	a.registerVariables()
	return a
}

// Handler returns the routes wrapped in the shared middleware.
func (a *API) Handler() http.Handler {
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging,
	}
	if a.deps.Metrics != nil && a.deps.Metrics.Enabled() {
		chain = append(chain, middleware.Metrics(a.deps.Metrics))
	}
	chain = append(chain,
		middleware.Recovery,
		middleware.MaxBodyBytes(a.deps.Config.Get().Server.MaxBodyBytes),
	)
	return middleware.Chain(middleware.CaptureRoute(a.mux), chain...)
}

// handle registers an authenticated route for path with and without a
// trailing slash. Writes additionally require the <area>.add, .change or
// .delete capability.
func (a *API) handle(method, path, area string, h http.HandlerFunc) {
	protected := middleware.Chain(h,
		a.deps.Auth.Handle,
		middleware.Principal,
		auth.RequireForWrites(a.deps.Config, area),
	)
	a.mux.Handle(method+" "+path, protected)
	a.mux.Handle(method+" "+path+"/{$}", protected)
}

func (a *API) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "OK")
}

func (a *API) defaultReservation() time.Duration {
	if d := a.deps.Config.Get().Variables.DefaultReservationDuration; d > 0 {
		return d
	}
	return variables.DefaultReservationDuration
}

func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
