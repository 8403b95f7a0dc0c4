package discovery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
)

func TestFetch(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case WellKnownPath:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(Metadata{
				Issuer:                server.URL,
				IntrospectionEndpoint: server.URL + "/oauth2/introspect",
				JWKSURI:               server.URL + "/jwks",
			})
		case "/wrong-issuer" + WellKnownPath:
			_ = json.NewEncoder(w).Encode(Metadata{
				Issuer:                "https://elsewhere.example.com",
				IntrospectionEndpoint: server.URL + "/oauth2/introspect",
			})
		case "/no-endpoint" + WellKnownPath:
			_ = json.NewEncoder(w).Encode(Metadata{Issuer: server.URL + "/no-endpoint"})
		case "/garbage" + WellKnownPath:
			_, _ = w.Write([]byte("<html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		md, err := Fetch(context.Background(), server.Client(), server.URL+"/")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/oauth2/introspect", md.IntrospectionEndpoint)
		assert.Equal(t, server.URL+"/jwks", md.JWKSURI)
	})

	failures := []struct {
		name   string
		issuer string
	}{
		{name: "issuer mismatch", issuer: server.URL + "/wrong-issuer"},
		{name: "missing introspection endpoint", issuer: server.URL + "/no-endpoint"},
		{name: "malformed document", issuer: server.URL + "/garbage"},
		{name: "not found", issuer: server.URL + "/missing"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Fetch(context.Background(), server.Client(), tt.issuer)
			require.Error(t, err)
			assert.ErrorIs(t, err, ierrors.ErrConfiguration)
		})
	}
}

func TestMetadataURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "https://auth.example.com/.well-known/oauth-authorization-server",
		MetadataURL("https://auth.example.com/"))
}
