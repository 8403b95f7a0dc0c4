package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
)

// router implements transportcore.Router on top of chi.
type router struct {
	mux         *chi.Mux
	middlewares []transportcore.Middleware
}

// NewRouter creates a new router. Unmatched paths answer 404 and known
// paths with a wrong method answer 405 with an Allow header.
func NewRouter() transportcore.Router {
	return &router{
		mux:         chi.NewRouter(),
		middlewares: make([]transportcore.Middleware, 0),
	}
}

// Handle registers handler for pattern, wrapped with the middleware
// registered so far. Patterns are "METHOD /path" or "/path" for any method.
func (r *router) Handle(pattern string, handler http.Handler) {
	wrapped := r.applyMiddleware(handler)

	method, path := splitPattern(pattern)
	if method == "" {
		r.mux.Handle(path, wrapped)
		return
	}
	r.mux.Method(method, path, wrapped)
}

// HandleFunc registers a handler function for the given pattern.
func (r *router) HandleFunc(pattern string, handler http.HandlerFunc) {
	r.Handle(pattern, handler)
}

// Use applies middleware to all subsequent route registrations.
// Middleware is applied in the order registered.
func (r *router) Use(middlewares ...transportcore.Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// ServeHTTP implements http.Handler.
func (r *router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// applyMiddleware wraps handler so the first registered middleware is the
// outermost layer.
func (r *router) applyMiddleware(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

func splitPattern(pattern string) (method, path string) {
	pattern = strings.TrimSpace(pattern)
	if i := strings.IndexByte(pattern, ' '); i > 0 {
		return strings.ToUpper(pattern[:i]), strings.TrimSpace(pattern[i+1:])
	}
	return "", pattern
}

// RoutePattern returns the chi route pattern matched by req, or "" when
// nothing matched. It is meant for metric labels.
func RoutePattern(req *http.Request) string {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
