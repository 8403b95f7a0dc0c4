package transport

import (
	"context"

	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// PrincipalFromContext returns the principal stored by the auth middleware.
func PrincipalFromContext(ctx context.Context) (principal.Principal, bool) {
	return transportcore.PrincipalFromContext(ctx)
}

// ContextWithPrincipal returns a context carrying p.
func ContextWithPrincipal(ctx context.Context, p principal.Principal) context.Context {
	return transportcore.ContextWithPrincipal(ctx, p)
}

// RequestIDFromContext returns the request ID assigned by the logging middleware.
func RequestIDFromContext(ctx context.Context) string {
	return transportcore.RequestIDFromContext(ctx)
}
