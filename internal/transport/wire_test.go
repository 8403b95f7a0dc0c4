package transport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesprial/token-introspector/internal/config"
	"github.com/jamesprial/token-introspector/internal/metrics"
	"github.com/jamesprial/token-introspector/internal/transport/internal/mocks"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Addr:                "127.0.0.1:0",
		ReadTimeout:         5 * time.Second,
		WriteTimeout:        5 * time.Second,
		IntrospectAuthority: "SCOPE_introspect",
		Realm:               "api",
	}
}

func newTestRouter(t *testing.T, withMetrics bool) (*httptest.Server, *mocks.Introspector) {
	t.Helper()

	introspector := &mocks.Introspector{Principals: map[string]principal.Principal{
		"caller": &principal.Client{
			ClientID: "gateway",
			Scopes:   []string{"introspect"},
			Granted:  principal.ScopeAuthorities([]string{"introspect"}),
		},
		"reader": &principal.Client{
			ClientID: "reader",
			Scopes:   []string{"read"},
			Granted:  principal.ScopeAuthorities([]string{"read"}),
		},
		"alice": &principal.User{
			UserID:   42,
			Username: "alice",
			Status:   principal.StatusActive,
			Granted:  []string{"ROLE_USER"},
		},
	}}

	cfg := &Config{
		ServerConfig: testServerConfig(),
		Introspector: introspector,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if withMetrics {
		m, err := metrics.New(prometheus.NewRegistry())
		require.NoError(t, err)
		cfg.Metrics = m
	}

	_, router, err := NewTransportServices(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, introspector
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestNewTransportServices_Routes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestRouter(t, false)

	introspectForm := func(bearer, token string) *http.Request {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/v1/introspect",
			strings.NewReader(url.Values{"token": {token}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		return req
	}
	get := func(path, bearer string) *http.Request {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		return req
	}

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantChall  string
		unrouted   bool
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name:       "health is public",
			req:        get("/health", ""),
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "ok", body["status"])
			},
		},
		{
			name:       "principal without token",
			req:        get("/v1/principal", ""),
			wantStatus: http.StatusUnauthorized,
			wantChall:  `Bearer realm="api"`,
		},
		{
			name:       "principal with inactive token",
			req:        get("/v1/principal", "expired"),
			wantStatus: http.StatusUnauthorized,
			wantChall:  `Bearer realm="api", error="invalid_token", error_description="the access token is not valid"`,
		},
		{
			name:       "principal for user",
			req:        get("/v1/principal", "alice"),
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "user", body["kind"])
				assert.EqualValues(t, 42, body["user_id"])
			},
		},
		{
			name:       "introspect needs authority",
			req:        introspectForm("reader", "alice"),
			wantStatus: http.StatusForbidden,
			wantChall:  `Bearer realm="api", error="insufficient_scope", scope="SCOPE_introspect"`,
		},
		{
			name:       "introspect active token",
			req:        introspectForm("caller", "alice"),
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, true, body["active"])
				assert.Equal(t, "alice", body["name"])
			},
		},
		{
			name:       "introspect inactive token",
			req:        introspectForm("caller", "nobody"),
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, map[string]any{"active": false}, body)
			},
		},
		{
			name:       "wrong method",
			req:        get("/v1/introspect", "caller"),
			wantStatus: http.StatusMethodNotAllowed,
			unrouted:   true,
		},
		{
			name:       "metrics disabled",
			req:        get("/metrics", ""),
			wantStatus: http.StatusNotFound,
			unrouted:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if !tt.unrouted {
				assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
			}
			if tt.wantChall != "" {
				assert.Equal(t, tt.wantChall, resp.Header.Get("WWW-Authenticate"))
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestNewTransportServices_Metrics(t *testing.T) {
	t.Parallel()

	srv, _ := newTestRouter(t, true)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `introspector_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestNewTransportServices_Validation(t *testing.T) {
	t.Parallel()

	noAuthority := testServerConfig()
	noAuthority.IntrospectAuthority = ""

	tests := []struct {
		name string
		cfg  *Config
	}{
		{name: "nil config", cfg: nil},
		{name: "nil server config", cfg: &Config{Introspector: &mocks.Introspector{}}},
		{name: "nil introspector", cfg: &Config{ServerConfig: testServerConfig()}},
		{name: "empty authority", cfg: &Config{ServerConfig: noAuthority, Introspector: &mocks.Introspector{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := NewTransportServices(tt.cfg)
			assert.Error(t, err)
		})
	}
}
