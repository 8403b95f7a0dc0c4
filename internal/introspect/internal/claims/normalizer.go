// Package claims maps a successful introspection response onto the
// principal model.
package claims

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/jamesprial/token-introspector/internal/introspect/internal/response"
	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
	"github.com/jamesprial/token-introspector/pkg/oauth"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// Normalizer converts response members into a ClaimsSet.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a Normalizer. A nil logger selects slog.Default().
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize returns the mapped claims and whether the token belongs to a
// machine client. An inactive token yields an ErrInactiveToken error; a
// malformed iss yields ErrProtocol. exp and nbf are mapped, never enforced.
func (n *Normalizer) Normalize(s *response.Success) (principal.ClaimsSet, bool, error) {
	const op = "Normalize"

	if s == nil {
		return nil, false, introspecterr.NewProtocolError(op, "empty result")
	}
	if !s.Active {
		return nil, false, introspecterr.NewInactiveTokenError(op)
	}

	fields := s.Fields
	claims := make(principal.ClaimsSet, len(fields))

	if aud := audience(fields[oauth.ClaimAudience]); aud != nil {
		claims[oauth.ClaimAudience] = aud
	}

	for _, name := range []string{
		oauth.ClaimClientID, oauth.ClaimSubject, oauth.ClaimUsername, oauth.ClaimTokenType, oauth.ClaimJTI,
	} {
		if v, ok := fields[name].(string); ok {
			claims[name] = v
		}
	}

	for _, name := range []string{oauth.ClaimExpiresAt, oauth.ClaimIssuedAt, oauth.ClaimNotBefore} {
		if ts, ok := epochSeconds(fields[name]); ok {
			claims[name] = ts
		}
	}

	if iss, ok := fields[oauth.ClaimIssuer].(string); ok {
		u, err := parseIssuer(iss)
		if err != nil {
			return nil, false, introspecterr.NewInvalidIssuerError(op, iss)
		}
		claims[oauth.ClaimIssuer] = u
	}

	if scope, ok := fields[oauth.ClaimScope].(string); ok {
		claims[oauth.ClaimScope] = strings.Fields(scope)
	}

	return claims, n.isClient(fields), nil
}

// isClient reads the is_client extension. Only a JSON boolean counts;
// any other value is logged and treated as false.
func (n *Normalizer) isClient(fields map[string]any) bool {
	raw, present := fields[oauth.ClaimIsClient]
	if !present || raw == nil {
		return false
	}
	if v, ok := raw.(bool); ok {
		return v
	}
	n.logger.Warn("ignoring unparsable is_client claim, treating token as user token",
		"value", fmt.Sprint(raw))
	return false
}

func audience(v any) []string {
	switch aud := v.(type) {
	case string:
		return []string{aud}
	case []any:
		out := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return aud
	}
	return nil
}

// epochSeconds converts a JSON number of seconds since the epoch, fractions
// allowed, to a UTC time.
func epochSeconds(v any) (time.Time, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return time.Unix(i, 0).UTC(), true
		}
		parsed, err := n.Float64()
		if err != nil {
			return time.Time{}, false
		}
		f = parsed
	case float64:
		f = n
	default:
		return time.Time{}, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), true
}

// parseIssuer accepts absolute URIs with a scheme and host.
func parseIssuer(iss string) (*url.URL, error) {
	u, err := url.Parse(iss)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("issuer %q is not an absolute URI", iss)
	}
	return u, nil
}
