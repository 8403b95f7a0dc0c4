package claims

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/response"
)

func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	require.NoError(t, dec.Decode(&fields))
	return fields
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestNormalize_Inactive(t *testing.T) {
	t.Parallel()

	claims, isClient, err := NewNormalizer(nil).Normalize(&response.Success{
		Active: false,
		Fields: map[string]any{"active": false, "client_id": "svc"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ierrors.ErrInactiveToken)
	assert.Nil(t, claims)
	assert.False(t, isClient)
}

func TestNormalize_StandardClaims(t *testing.T) {
	t.Parallel()

	fields := decode(t, `{
		"active": true,
		"aud": "api",
		"client_id": "svc",
		"exp": 1700000000,
		"iat": 1699999000.5,
		"nbf": 1699999000,
		"iss": "https://auth.example.com/realm",
		"scope": "read  write",
		"sub": "alice-id",
		"username": "alice",
		"token_type": "Bearer",
		"jti": "abc"
	}`)

	claims, isClient, err := NewNormalizer(nil).Normalize(&response.Success{Active: true, Fields: fields})
	require.NoError(t, err)
	assert.False(t, isClient)

	assert.Equal(t, []string{"api"}, claims.Audience())
	assert.Equal(t, "svc", claims.ClientID())
	assert.Equal(t, []string{"read", "write"}, claims.Scopes())
	assert.Equal(t, "alice-id", claims.Subject())
	assert.Equal(t, "alice", claims.String("username"))
	assert.Equal(t, "Bearer", claims.String("token_type"))
	assert.Equal(t, "abc", claims.String("jti"))
	assert.Equal(t, "https://auth.example.com/realm", claims.Issuer().String())

	exp, ok := claims.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(time.Unix(1700000000, 0)))

	iat, ok := claims.IssuedAt()
	require.True(t, ok)
	assert.True(t, iat.Equal(time.Unix(1699999000, int64(500*time.Millisecond))))

	_, ok = claims.NotBefore()
	assert.True(t, ok)
}

// Expired tokens reported active are accepted: the authorization server's
// active flag is the only liveness signal.
func TestNormalize_DoesNotCheckExpiry(t *testing.T) {
	t.Parallel()

	fields := decode(t, `{"active":true,"exp":1,"nbf":4102444800}`)
	_, _, err := NewNormalizer(nil).Normalize(&response.Success{Active: true, Fields: fields})
	assert.NoError(t, err)
}

func TestNormalize_InvalidIssuer(t *testing.T) {
	t.Parallel()

	for _, iss := range []string{"not a uri", "auth.example.com", "https://", "://bad"} {
		t.Run(iss, func(t *testing.T) {
			t.Parallel()
			_, _, err := NewNormalizer(nil).Normalize(&response.Success{
				Active: true,
				Fields: map[string]any{"active": true, "iss": iss},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ierrors.ErrProtocol)
			assert.Contains(t, err.Error(), "invalid issuer")
		})
	}
}

func TestNormalize_IsClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		present  bool
		want     bool
		wantWarn bool
	}{
		{name: "absent", present: false, want: false},
		{name: "null", value: nil, present: true, want: false},
		{name: "true", value: true, present: true, want: true},
		{name: "false", value: false, present: true, want: false},
		{name: "string true", value: "true", present: true, want: false, wantWarn: true},
		{name: "string FALSE", value: "FALSE", present: true, want: false, wantWarn: true},
		{name: "unparsable string", value: "yes please", present: true, want: false, wantWarn: true},
		{name: "number", value: json.Number("1"), present: true, want: false, wantWarn: true},
		{name: "object", value: map[string]any{}, present: true, want: false, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fields := map[string]any{"active": true}
			if tt.present {
				fields["is_client"] = tt.value
			}
			logger, buf := bufferLogger()

			_, isClient, err := NewNormalizer(logger).Normalize(&response.Success{Active: true, Fields: fields})
			require.NoError(t, err)
			assert.Equal(t, tt.want, isClient)
			assert.Equal(t, tt.wantWarn, strings.Contains(buf.String(), "is_client"))
		})
	}
}
