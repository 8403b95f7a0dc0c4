package transportcore

import (
	"context"

	"github.com/jamesprial/token-introspector/pkg/principal"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// PrincipalContextKey is the context key for the authenticated principal.
	PrincipalContextKey contextKey = "principal"

	// RequestIDContextKey is the context key for the request ID.
	RequestIDContextKey contextKey = "request_id"
)

// PrincipalFromContext extracts the authenticated principal.
// Returns nil and false if no principal is present.
func PrincipalFromContext(ctx context.Context) (principal.Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(PrincipalContextKey).(principal.Principal)
	return p, ok && p != nil
}

// ContextWithPrincipal returns a context carrying p.
func ContextWithPrincipal(ctx context.Context, p principal.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, PrincipalContextKey, p)
}

// RequestIDFromContext returns the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// ContextWithRequestID returns a context carrying id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, RequestIDContextKey, id)
}
