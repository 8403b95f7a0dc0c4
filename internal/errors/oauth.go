package errors

import (
	"fmt"
	"strings"
)

// RFC 6750 Section 3.1 error codes.
const (
	// ErrorCodeInvalidToken indicates the access token is invalid, expired, or revoked.
	ErrorCodeInvalidToken = "invalid_token"

	// ErrorCodeInsufficientScope indicates the principal lacks a required authority.
	ErrorCodeInsufficientScope = "insufficient_scope"

	// ErrorCodeInvalidRequest indicates the request is malformed or missing required parameters.
	ErrorCodeInvalidRequest = "invalid_request"
)

// BearerChallenge describes an RFC 6750 bearer challenge sent with 401 and
// 403 responses.
type BearerChallenge struct {
	// Realm is the protection space.
	Realm string

	// ErrorCode is the RFC 6750 error code (e.g., "invalid_token").
	ErrorCode string

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string

	// Scope is the space-separated list of scopes required by the resource.
	Scope string
}

// Error implements the error interface.
func (c *BearerChallenge) Error() string {
	if c.ErrorDescription != "" {
		return fmt.Sprintf("%s: %s", c.ErrorCode, c.ErrorDescription)
	}
	return c.ErrorCode
}

// NewBearerChallenge creates a challenge with the given error code and description.
func NewBearerChallenge(errorCode, errorDescription string) *BearerChallenge {
	return &BearerChallenge{
		ErrorCode:        errorCode,
		ErrorDescription: errorDescription,
	}
}

// WithRealm sets the realm and returns the challenge for chaining.
func (c *BearerChallenge) WithRealm(realm string) *BearerChallenge {
	c.Realm = realm
	return c
}

// WithScope sets the scope and returns the challenge for chaining.
func (c *BearerChallenge) WithScope(scope string) *BearerChallenge {
	c.Scope = scope
	return c
}

// WWWAuthenticate formats the challenge as a WWW-Authenticate header value.
//
// Example output:
//
//	Bearer realm="api", error="invalid_token", error_description="token is not active"
func (c *BearerChallenge) WWWAuthenticate() string {
	var parts []string

	if c.Realm != "" {
		parts = append(parts, fmt.Sprintf(`realm="%s"`, escapeQuotes(c.Realm)))
	}
	if c.ErrorCode != "" {
		parts = append(parts, fmt.Sprintf(`error="%s"`, escapeQuotes(c.ErrorCode)))
	}
	if c.ErrorDescription != "" {
		parts = append(parts, fmt.Sprintf(`error_description="%s"`, escapeQuotes(c.ErrorDescription)))
	}
	if c.Scope != "" {
		parts = append(parts, fmt.Sprintf(`scope="%s"`, escapeQuotes(c.Scope)))
	}

	if len(parts) == 0 {
		return "Bearer"
	}
	return "Bearer " + strings.Join(parts, ", ")
}

// escapeQuotes escapes double quotes in strings for use in header values.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
