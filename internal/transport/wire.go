package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jamesprial/token-introspector/internal/config"
	"github.com/jamesprial/token-introspector/internal/introspect"
	"github.com/jamesprial/token-introspector/internal/metrics"
	"github.com/jamesprial/token-introspector/internal/transport/internal/handlers"
	transporthttp "github.com/jamesprial/token-introspector/internal/transport/internal/http"
	"github.com/jamesprial/token-introspector/internal/transport/internal/middleware"
)

// NewServer creates a configured HTTP server.
func NewServer(cfg *config.ServerConfig, router Router) Server {
	return transporthttp.NewServer(cfg, router)
}

// NewRouter creates a new chi backed router.
func NewRouter() Router {
	return transporthttp.NewRouter()
}

// NewAuthMiddleware creates bearer authentication middleware backed by introspector.
func NewAuthMiddleware(introspector introspect.Introspector, responder ErrorResponder, logger *slog.Logger) AuthMiddleware {
	return middleware.NewAuthMiddleware(introspector, responder, logger)
}

// NewErrorResponder creates an RFC 6750 error responder.
func NewErrorResponder(realm string, logger *slog.Logger) ErrorResponder {
	return transporthttp.NewErrorResponder(realm, logger)
}

// NewHealthHandler creates the health check handler.
func NewHealthHandler() http.Handler {
	return handlers.NewHealthHandler()
}

// NewPrincipalHandler creates the handler rendering the authenticated principal.
func NewPrincipalHandler(responder ErrorResponder) http.Handler {
	return handlers.NewPrincipalHandler(responder)
}

// NewIntrospectHandler creates the handler introspecting tokens for callers.
func NewIntrospectHandler(introspector introspect.Introspector, responder ErrorResponder, logger *slog.Logger) http.Handler {
	return handlers.NewIntrospectHandler(introspector, responder, logger)
}

// NewLoggingMiddleware creates request logging middleware.
func NewLoggingMiddleware(logger *slog.Logger) Middleware {
	return middleware.NewLoggingMiddleware(logger)
}

// NewRecoveryMiddleware creates panic recovery middleware.
func NewRecoveryMiddleware(responder ErrorResponder, logger *slog.Logger) Middleware {
	return middleware.NewRecoveryMiddleware(responder, logger)
}

// Config holds the dependencies of the transport layer.
type Config struct {
	// ServerConfig is the server configuration.
	ServerConfig *config.ServerConfig

	// Introspector resolves bearer tokens to principals.
	Introspector introspect.Introspector

	// Metrics is optional. When set, requests are counted and /metrics is served.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewTransportServices wires routing, middleware and handlers into a server.
func NewTransportServices(cfg *Config) (Server, Router, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.ServerConfig == nil {
		return nil, nil, fmt.Errorf("server config cannot be nil")
	}
	if cfg.Introspector == nil {
		return nil, nil, fmt.Errorf("introspector cannot be nil")
	}
	if cfg.ServerConfig.IntrospectAuthority == "" {
		return nil, nil, fmt.Errorf("introspect authority cannot be empty")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	responder := NewErrorResponder(cfg.ServerConfig.Realm, logger)
	auth := NewAuthMiddleware(cfg.Introspector, responder, logger)

	router := NewRouter()
	router.Use(NewRecoveryMiddleware(responder, logger), NewLoggingMiddleware(logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware(transporthttp.RoutePattern))
	}

	router.Handle("GET /health", NewHealthHandler())
	if cfg.Metrics != nil {
		router.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	router.Handle("GET /v1/principal", auth.Authenticate()(NewPrincipalHandler(responder)))
	router.Handle("POST /v1/introspect",
		auth.Authenticate()(
			auth.RequireAuthority(cfg.ServerConfig.IntrospectAuthority)(
				NewIntrospectHandler(cfg.Introspector, responder, logger))))

	return NewServer(cfg.ServerConfig, router), router, nil
}
