package response

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// RFC 9701 JWT header typ of a signed introspection response.
const signedResponseType = "token-introspection+jwt"

// KeySource resolves a verification key by key ID.
type KeySource interface {
	GetKey(ctx context.Context, keyID string) (any, error)
}

// JWTVerifier verifies RFC 9701 signed introspection responses.
type JWTVerifier struct {
	keys     KeySource
	issuer   string
	audience string
	methods  []string
	leeway   time.Duration
}

// NewJWTVerifier creates a verifier. issuer and audience (the resource
// server's client_id) are checked when non-empty.
func NewJWTVerifier(keys KeySource, issuer, audience string) *JWTVerifier {
	return &JWTVerifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		methods:  []string{"RS256", "RS384", "RS512", "PS256", "PS384", "PS512", "ES256", "ES384", "ES512"},
		leeway:   30 * time.Second,
	}
}

// Verify checks the signature and envelope claims of raw and returns the
// token_introspection member.
func (v *JWTVerifier) Verify(ctx context.Context, raw string) (map[string]any, error) {
	if raw == "" {
		return nil, errors.New("empty signed response")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithJSONNumber(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.GetKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("signed response verification failed: %w", err)
	}

	if typ, _ := token.Header["typ"].(string); !isSignedResponseType(typ) {
		return nil, fmt.Errorf("signed response has typ %q", typ)
	}

	inner, ok := claims[oauth.ClaimTokenIntrospection].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("signed response missing %q object", oauth.ClaimTokenIntrospection)
	}
	return inner, nil
}

func isSignedResponseType(typ string) bool {
	typ = strings.ToLower(typ)
	return typ == signedResponseType || typ == "application/"+signedResponseType
}
