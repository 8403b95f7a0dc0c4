package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
	"github.com/jamesprial/token-introspector/internal/transport/internal/mocks"
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

func kindError(kind error) error {
	return ierrors.New("introspect", "Introspect", kind, nil)
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def", want: "abc.def"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "surrounding spaces", header: "Bearer   abc  ", want: "abc"},
		{name: "missing header", header: "", wantErr: transportcore.ErrMissingToken},
		{name: "no token", header: "Bearer", wantErr: transportcore.ErrInvalidToken},
		{name: "blank token", header: "Bearer   ", wantErr: transportcore.ErrInvalidToken},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", wantErr: transportcore.ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := extractBearerToken(req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	alice := &principal.User{Username: "alice", Status: principal.StatusActive}

	tests := []struct {
		name       string
		header     string
		result     principal.Principal
		err        error
		wantStatus int
		wantCalls  int
		wantLevel  slog.Level
	}{
		{name: "active token", header: "Bearer good", result: alice, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "query token ignored", header: "", wantStatus: http.StatusUnauthorized},
		{name: "inactive token", header: "Bearer old", err: kindError(ierrors.ErrInactiveToken), wantStatus: http.StatusUnauthorized, wantCalls: 1, wantLevel: slog.LevelDebug},
		{name: "protocol error", header: "Bearer x", err: kindError(ierrors.ErrProtocol), wantStatus: http.StatusUnauthorized, wantCalls: 1, wantLevel: slog.LevelWarn},
		{name: "transport error", header: "Bearer x", err: kindError(ierrors.ErrTransport), wantStatus: http.StatusUnauthorized, wantCalls: 1, wantLevel: slog.LevelWarn},
		{name: "configuration error", header: "Bearer x", err: kindError(ierrors.ErrConfiguration), wantStatus: http.StatusUnauthorized, wantCalls: 1, wantLevel: slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			var gotToken string
			introspector := &mocks.Introspector{IntrospectFunc: func(_ context.Context, token string) (principal.Principal, error) {
				calls++
				gotToken = token
				return tt.result, tt.err
			}}
			logs := &captureHandler{}
			responder := &mocks.ErrorResponder{}
			mw := NewAuthMiddleware(introspector, responder, slog.New(logs))

			var seen principal.Principal
			handler := mw.Authenticate()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen, _ = transportcore.PrincipalFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/v1/principal?access_token=leaked", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantStatus == http.StatusOK {
				assert.Same(t, alice, seen)
				assert.Equal(t, "good", gotToken)
				return
			}
			assert.Nil(t, seen)
			require.Error(t, responder.UnauthorizedErr)
			assert.ErrorIs(t, responder.UnauthorizedErr, ierrors.ErrUnauthorized)
			if tt.err == nil {
				assert.ErrorIs(t, responder.UnauthorizedErr, transportcore.ErrMissingToken)
			}
			if tt.err != nil {
				assert.ErrorIs(t, responder.UnauthorizedErr, ierrors.KindOf(tt.err))
				entries := logs.snapshot()
				require.Len(t, entries, 1)
				assert.Equal(t, tt.wantLevel, entries[0]["level"])
			}
		})
	}
}

func TestRequireAuthority(t *testing.T) {
	t.Parallel()

	client := &principal.Client{
		ClientID: "svc",
		Scopes:   []string{"introspect", "read"},
		Granted:  principal.ScopeAuthorities([]string{"introspect", "read"}),
	}

	tests := []struct {
		name       string
		principal  principal.Principal
		required   []string
		wantStatus int
	}{
		{name: "holds authority", principal: client, required: []string{"SCOPE_introspect"}, wantStatus: http.StatusOK},
		{name: "holds all", principal: client, required: []string{"SCOPE_introspect", "SCOPE_read"}, wantStatus: http.StatusOK},
		{name: "nothing required", principal: client, wantStatus: http.StatusOK},
		{name: "missing one", principal: client, required: []string{"SCOPE_read", "ROLE_ADMIN"}, wantStatus: http.StatusForbidden},
		{name: "not authenticated", principal: nil, required: []string{"SCOPE_read"}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			responder := &mocks.ErrorResponder{}
			mw := NewAuthMiddleware(&mocks.Introspector{IntrospectFunc: func(context.Context, string) (principal.Principal, error) {
				return nil, errors.New("unused")
			}}, responder, nil)

			handler := mw.RequireAuthority(tt.required...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(transportcore.ContextWithPrincipal(req.Context(), tt.principal))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			switch tt.wantStatus {
			case http.StatusForbidden:
				assert.Equal(t, tt.required, responder.ForbiddenRequired)
				assert.ErrorIs(t, responder.ForbiddenErr, ierrors.ErrForbidden)
				assert.ErrorIs(t, responder.ForbiddenErr, transportcore.ErrInsufficientAuthority)
			case http.StatusUnauthorized:
				assert.ErrorIs(t, responder.UnauthorizedErr, ierrors.ErrUnauthorized)
				assert.ErrorIs(t, responder.UnauthorizedErr, transportcore.ErrUnauthenticated)
			}
		})
	}
}

func TestAuthenticateThenRequireAuthority(t *testing.T) {
	t.Parallel()

	user := &principal.User{Username: "bob", Granted: []string{"ROLE_USER"}}
	mw := NewAuthMiddleware(&mocks.Introspector{IntrospectFunc: func(context.Context, string) (principal.Principal, error) {
		return user, nil
	}}, &mocks.ErrorResponder{}, nil)

	handler := mw.Authenticate()(mw.RequireAuthority("ROLE_ADMIN")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNewAuthMiddleware_PanicsOnNil(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { NewAuthMiddleware(nil, &mocks.ErrorResponder{}, nil) })
	assert.Panics(t, func() {
		NewAuthMiddleware(&mocks.Introspector{IntrospectFunc: func(context.Context, string) (principal.Principal, error) {
			return nil, nil
		}}, nil, nil)
	})
}
