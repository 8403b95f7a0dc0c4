// Package middleware provides HTTP middleware for the transport layer.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamesprial/token-introspector/internal/introspect"
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// authMiddleware implements transportcore.AuthMiddleware.
type authMiddleware struct {
	introspector introspect.Introspector
	responder    transportcore.ErrorResponder
	logger       *slog.Logger
}

// NewAuthMiddleware creates bearer authentication middleware. Tokens are
// resolved to principals by the introspector.
func NewAuthMiddleware(
	introspector introspect.Introspector,
	responder transportcore.ErrorResponder,
	logger *slog.Logger,
) transportcore.AuthMiddleware {
	if introspector == nil {
		panic("introspector cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &authMiddleware{
		introspector: introspector,
		responder:    responder,
		logger:       logger,
	}
}

// Authenticate introspects the bearer token and stores the principal in
// the request context. Every introspection failure answers 401.
func (m *authMiddleware) Authenticate() transportcore.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r)
			if err != nil {
				m.responder.Unauthorized(w, transportcore.NewUnauthorizedError("Authenticate", err))
				return
			}

			p, err := m.introspector.Introspect(r.Context(), token)
			if err != nil {
				m.logFailure(r.Context(), err)
				m.responder.Unauthorized(w, transportcore.NewUnauthorizedError("Authenticate", err))
				return
			}

			ctx := transportcore.ContextWithPrincipal(r.Context(), p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority checks that the principal holds every listed authority.
// It must run after Authenticate; without a principal it answers 401.
func (m *authMiddleware) RequireAuthority(authorities ...string) transportcore.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := transportcore.PrincipalFromContext(r.Context())
			if !ok {
				m.responder.Unauthorized(w,
					transportcore.NewUnauthorizedError("RequireAuthority", transportcore.ErrUnauthenticated))
				return
			}

			for _, authority := range authorities {
				if !p.HasAuthority(authority) {
					m.responder.Forbidden(w, authorities, transportcore.NewForbiddenError("RequireAuthority", authorities))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// logFailure logs at a level matching the error kind. Inactive tokens are
// routine; a configuration error needs an operator.
func (m *authMiddleware) logFailure(ctx context.Context, err error) {
	level := slog.LevelWarn
	switch {
	case errors.Is(err, introspect.ErrInactiveToken):
		level = slog.LevelDebug
	case errors.Is(err, introspect.ErrConfiguration):
		level = slog.LevelError
	}
	m.logger.Log(ctx, level, "token introspection failed",
		"error", err,
		"request_id", transportcore.RequestIDFromContext(ctx),
	)
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Tokens in the query string are never accepted.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get(oauth.HeaderAuthorization)
	if authHeader == "" {
		return "", transportcore.ErrMissingToken
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found {
		return "", transportcore.ErrInvalidToken
	}

	// The scheme is case-insensitive per RFC 6750.
	if !strings.EqualFold(scheme, oauth.BearerToken) {
		return "", transportcore.ErrInvalidToken
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", transportcore.ErrInvalidToken
	}
	return token, nil
}
