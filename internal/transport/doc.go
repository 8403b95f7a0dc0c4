// Package transport provides the HTTP resource server.
//
// # Package structure
//
//	internal/transport/
//	├── transport.go              # Re-exported interfaces
//	├── errors.go                 # Transport errors
//	├── context.go                # Principal and request ID helpers
//	├── wire.go                   # Factory functions
//	├── transportcore/            # Types shared with the internal packages
//	└── internal/
//	    ├── http/                 # chi router, server, RFC 6750 responder
//	    ├── middleware/           # auth, logging, recovery
//	    └── handlers/             # health, principal, introspect
//
// # Endpoints
//
// Public:
//   - GET /health
//   - GET /metrics (when a metrics registry is configured)
//
// Bearer protected:
//   - GET /v1/principal returns the authenticated principal.
//   - POST /v1/introspect introspects the form parameter token on behalf of
//     the caller. The caller needs the configured introspect authority.
//
// # Middleware chain
//
//  1. Recovery catches panics and answers 500.
//  2. Logging assigns X-Request-ID and logs one line per request.
//  3. Metrics counts requests per route pattern, when enabled.
//  4. Authenticate introspects the bearer token (protected routes only).
//  5. RequireAuthority checks the principal's authorities.
//
// # Errors
//
// Every introspection failure answers 401:
//
//	HTTP/1.1 401 Unauthorized
//	WWW-Authenticate: Bearer realm="api", error="invalid_token", error_description="the access token is not valid"
//
// A request without credentials gets a bare challenge, as RFC 6750
// Section 3.1 asks. A missing authority answers 403:
//
//	HTTP/1.1 403 Forbidden
//	WWW-Authenticate: Bearer realm="api", error="insufficient_scope", scope="SCOPE_introspect"
//
// # Usage
//
//	server, _, err := transport.NewTransportServices(&transport.Config{
//		ServerConfig: &cfg.Server,
//		Introspector: introspector,
//		Metrics:      m,
//		Logger:       logger,
//	})
//	if err != nil {
//		return err
//	}
//	go server.Start()
//	defer server.Shutdown(context.Background())
package transport
