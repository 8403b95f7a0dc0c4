// Package mocks provides mock implementations for testing the transport layer.
package mocks

import (
	"context"
	"net/http"
	"strings"
	"sync"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// Introspector is a mock implementation of introspect.Introspector.
// IntrospectFunc takes precedence over Principals.
type Introspector struct {
	IntrospectFunc func(ctx context.Context, token string) (principal.Principal, error)

	// Principals maps known tokens to principals. Unknown tokens are inactive.
	Principals map[string]principal.Principal

	mu     sync.Mutex
	tokens []string
}

// Introspect records the token and resolves it.
func (m *Introspector) Introspect(ctx context.Context, token string) (principal.Principal, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, token)
	m.mu.Unlock()

	if m.IntrospectFunc != nil {
		return m.IntrospectFunc(ctx, token)
	}
	if p, ok := m.Principals[token]; ok {
		return p, nil
	}
	return nil, ierrors.New("introspect", "Introspect", ierrors.ErrInactiveToken, nil)
}

// Tokens returns the tokens seen so far, in call order.
func (m *Introspector) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...)
}

// ErrorResponder records calls and writes minimal responses.
type ErrorResponder struct {
	UnauthorizedCalled bool
	UnauthorizedErr    error
	ForbiddenCalled    bool
	ForbiddenRequired  []string
	ForbiddenErr       error
	InternalCalled     bool
	InternalErr        error
	BadRequestCalled   bool
	BadRequestErr      error
}

// Unauthorized records the call and writes a 401 response.
func (m *ErrorResponder) Unauthorized(w http.ResponseWriter, err error) {
	m.UnauthorizedCalled = true
	m.UnauthorizedErr = err
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	w.WriteHeader(http.StatusUnauthorized)
}

// Forbidden records the call and writes a 403 response.
func (m *ErrorResponder) Forbidden(w http.ResponseWriter, required []string, err error) {
	m.ForbiddenCalled = true
	m.ForbiddenRequired = required
	m.ForbiddenErr = err
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
	w.WriteHeader(http.StatusForbidden)
}

// InternalError records the call and writes a 500 response.
func (m *ErrorResponder) InternalError(w http.ResponseWriter, err error) {
	m.InternalCalled = true
	m.InternalErr = err
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"internal_error"}`))
}

// BadRequest records the call and writes a 400 response.
func (m *ErrorResponder) BadRequest(w http.ResponseWriter, err error) {
	m.BadRequestCalled = true
	m.BadRequestErr = err
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"invalid_request"}`))
}
