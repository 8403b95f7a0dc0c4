// Package transport is the HTTP front end of the introspector: a resource
// server that authenticates bearer tokens by introspection.
package transport

import (
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
)

// Re-export types from transportcore so callers need a single import.

// Middleware is a function that wraps an http.Handler.
type Middleware = transportcore.Middleware

// Server manages the HTTP server lifecycle.
type Server = transportcore.Server

// Router handles HTTP request routing and middleware composition.
type Router = transportcore.Router

// AuthMiddleware authenticates bearer tokens and enforces authorities.
type AuthMiddleware = transportcore.AuthMiddleware

// ErrorResponder writes RFC 6750 compliant error responses.
type ErrorResponder = transportcore.ErrorResponder
