package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
)

// newAuthServer answers introspection requests for a fixed set of tokens
// and counts how often it was called.
func newAuthServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	responses := map[string]string{
		"user-token":   `{"active":true,"username":"alice","scope":"read","info":{"userId":7}}`,
		"client-token": `{"active":true,"is_client":true,"client_id":"svc","scope":"read introspect"}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if user, pass, ok := r.BasicAuth(); !ok || user != "rs" || pass != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = r.ParseForm()
		body, ok := responses[r.PostForm.Get("token")]
		if !ok {
			body = `{"active":false}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeConfig(t *testing.T, endpoint, extra string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "introspector.yaml")
	content := `server:
  addr: 127.0.0.1:0
introspection:
  url: ` + endpoint + `
  client_id: rs
  client_secret: s3cret
log:
  level: error
` + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, ctx context.Context, ready chan<- string, args ...string) (string, error) {
	t.Helper()

	var out, logs bytes.Buffer
	cmd := newRootCmd(&out, &logs, ready)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestIntrospectCommand(t *testing.T) {
	t.Parallel()

	auth, _ := newAuthServer(t)
	cfgPath := writeConfig(t, auth.URL+"/introspect", "")

	tests := []struct {
		name     string
		token    string
		wantKind string
		wantName string
		wantErr  error
	}{
		{name: "user", token: "user-token", wantKind: "user", wantName: "alice"},
		{name: "client", token: "client-token", wantKind: "client", wantName: "svc"},
		{name: "inactive", token: "revoked", wantErr: ierrors.ErrInactiveToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := run(t, context.Background(), nil, "introspect", tt.token, "--config", cfgPath)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, out)
				return
			}
			require.NoError(t, err)

			var view map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &view))
			assert.Equal(t, tt.wantKind, view["kind"])
			assert.Equal(t, tt.wantName, view["name"])
		})
	}
}

func TestIntrospectCommand_Errors(t *testing.T) {
	t.Parallel()

	auth, _ := newAuthServer(t)

	t.Run("missing token argument", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, context.Background(), nil, "introspect", "--config", writeConfig(t, auth.URL, ""))
		assert.Error(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Parallel()
		_, err := run(t, context.Background(), nil, "introspect", "tok", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		t.Parallel()
		dead := httptest.NewServer(http.NotFoundHandler())
		url := dead.URL
		dead.Close()

		_, err := run(t, context.Background(), nil, "introspect", "tok", "--config", writeConfig(t, url, ""))
		assert.ErrorIs(t, err, ierrors.ErrTransport)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "introspector.yaml")
		content := "introspection:\n  url: " + auth.URL + "\n  client_id: rs\n  client_secret: wrong\nlog:\n  level: error\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := run(t, context.Background(), nil, "introspect", "user-token", "--config", path)
		assert.ErrorIs(t, err, ierrors.ErrProtocol)
	})
}

func TestServeCommand(t *testing.T) {
	t.Parallel()

	auth, calls := newAuthServer(t)
	cfgPath := writeConfig(t, auth.URL+"/introspect", "cache:\n  driver: memory\n  ttl: 1m\nmetrics:\n  enabled: true\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, ready, "serve", "--config", cfgPath)
		done <- err
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	base := "http://" + addr

	getPrincipal := func(token string) int {
		req, err := http.NewRequest(http.MethodGet, base+"/v1/principal", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, getPrincipal("user-token"))
	assert.Equal(t, http.StatusOK, getPrincipal("user-token"))
	assert.Equal(t, int32(1), calls.Load(), "second lookup is served from the cache")
	assert.Equal(t, http.StatusUnauthorized, getPrincipal("revoked"))

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(raw), `introspector_introspections_total{outcome="user"} 2`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestServeCommand_FixedAddress(t *testing.T) {
	t.Parallel()

	auth, _ := newAuthServer(t)
	cfgPath := writeConfig(t, auth.URL+"/introspect", "")

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	want := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		_, err := run(t, ctx, ready, "serve", "--config", cfgPath, "--addr", want)
		done <- err
	}()

	select {
	case got := <-ready:
		assert.Equal(t, want, got)
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("ready was never signalled for a fixed address")
	}

	resp, err := http.Get("http://" + want + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
