/*
Package auth resolves the principal behind an API request and carries it on
the request context.

Two credential kinds are accepted:

 1. Static API keys from the configuration key table, sent as
    "Authorization: Token <key>", "Authorization: Bearer <key>" or
    "X-API-Key: <key>".

 2. HS256 JWT bearer tokens whose subject is the principal name and whose
    "capabilities" claim lists granted capabilities.

A Principal holds capabilities such as "variable.view",
"variable.see_protected" or "application.view.<name>". Superusers hold all
of them.

While security.api_enabled is true the middleware answers 401 with a JSON
{"detail": ...} body when no valid credential is sent. When it is false,
every request passes through and handlers see no principal.

	mw := auth.NewMiddleware(holder, cfg.Security.Authentication)
	mux.Handle("/variable/api/", mw.Handle(handler))

	func handler(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.PrincipalFromContext(r.Context())
		if p.Has(auth.SeeProtected) {
			// ...
		}
	}

Key values and tokens are never logged.
*/
package auth
