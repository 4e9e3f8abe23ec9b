// Package server runs the HTTP listener of the info server.
//
// The server owns only the listener lifecycle: routing and middleware come
// from pkg/api, TLS settings from pkg/security/tls.
//
//	srv := server.New(cfg.Server, api.Handler(), tlsConfig)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Start returns after ctx is cancelled, SIGINT or SIGTERM is received, or
// Shutdown is called. In-flight requests get up to
// server.shutdown_timeout to complete.
//
// # Timeouts
//
// Read, write and idle timeouts and the header size limit come from the
// server section of the configuration. Element screenshots travel base64
// encoded inside JSON bodies, so the read timeout should leave room for
// uploads of several megabytes.
package server
