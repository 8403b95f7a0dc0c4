// Package transportcore provides core types, interfaces, and primitives for the transport layer.
// This package exists to break import cycles between the transport package and its internal subpackages.
package transportcore

import (
	"context"
	"net/http"
)

// Middleware is a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server manages the HTTP server lifecycle.
// Implementations must support graceful shutdown and provide
// access to the bound address after startup.
type Server interface {
	// Start begins serving HTTP requests on the configured address.
	// This is a blocking call that returns when the server stops
	// or encounters an error during startup.
	Start() error

	// Shutdown gracefully shuts down the server without interrupting
	// active connections.
	Shutdown(ctx context.Context) error

	// Addr returns the address the server is listening on.
	Addr() string

	// Ready is closed once the listener is bound.
	Ready() <-chan struct{}
}

// Router handles HTTP request routing and middleware composition.
type Router interface {
	http.Handler

	// Handle registers a handler for a "METHOD /path" or "/path" pattern.
	Handle(pattern string, handler http.Handler)

	// HandleFunc registers a handler function for the given pattern.
	HandleFunc(pattern string, handler http.HandlerFunc)

	// Use applies middleware to all subsequent route registrations.
	// Middleware is applied in the order registered.
	Use(middlewares ...Middleware)
}

// AuthMiddleware authenticates bearer tokens by introspection and enforces
// authorities on the resulting principal.
type AuthMiddleware interface {
	// Authenticate introspects the bearer token and stores the principal in
	// the request context. Any introspection failure yields 401.
	Authenticate() Middleware

	// RequireAuthority checks that the principal holds every authority.
	// It must run after Authenticate. A missing authority yields 403.
	RequireAuthority(authorities ...string) Middleware
}

// ErrorResponder writes RFC 6750 compliant error responses.
type ErrorResponder interface {
	// Unauthorized sends 401 with a WWW-Authenticate challenge. err decides
	// whether error="invalid_token" is included.
	Unauthorized(w http.ResponseWriter, err error)

	// Forbidden sends 403 with error="insufficient_scope".
	Forbidden(w http.ResponseWriter, required []string, err error)

	// InternalError sends a 500 Internal Server Error response.
	InternalError(w http.ResponseWriter, err error)

	// BadRequest sends a 400 Bad Request response.
	BadRequest(w http.ResponseWriter, err error)
}
