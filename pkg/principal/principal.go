// Package principal defines the authenticated principal produced by token
// introspection and consumed by the rest of the security layer.
package principal

import (
	"net/url"
	"slices"
	"time"

	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// StatusActive is the status assigned to every introspected user.
const StatusActive = 1

// Principal is the authenticated identity behind an access token.
// It is either a *User or a *Client.
type Principal interface {
	// Name returns the username for users and the client id for clients.
	Name() string

	// Authorities returns the granted authorities, without duplicates.
	Authorities() []string

	// HasAuthority reports whether the given authority was granted.
	HasAuthority(authority string) bool

	// Attributes returns the normalized claims of the token.
	Attributes() ClaimsSet
}

// ClaimsSet maps claim names to normalized values: string, []string,
// time.Time, *url.URL, or whatever JSON value an extension attribute carried.
type ClaimsSet map[string]any

// String returns the claim as a string, or "" when absent or of another type.
func (c ClaimsSet) String(name string) string {
	s, _ := c[name].(string)
	return s
}

// Strings returns the claim as a string slice, or nil when absent or of another type.
func (c ClaimsSet) Strings(name string) []string {
	s, _ := c[name].([]string)
	return s
}

// Time returns the claim as a timestamp and whether it was present.
func (c ClaimsSet) Time(name string) (time.Time, bool) {
	t, ok := c[name].(time.Time)
	return t, ok
}

// Audience returns the aud claim.
func (c ClaimsSet) Audience() []string { return c.Strings(oauth.ClaimAudience) }

// ClientID returns the client_id claim.
func (c ClaimsSet) ClientID() string { return c.String(oauth.ClaimClientID) }

// Scopes returns the scope claim in server order.
func (c ClaimsSet) Scopes() []string { return c.Strings(oauth.ClaimScope) }

// Subject returns the sub claim.
func (c ClaimsSet) Subject() string { return c.String(oauth.ClaimSubject) }

// ExpiresAt returns the exp claim.
func (c ClaimsSet) ExpiresAt() (time.Time, bool) { return c.Time(oauth.ClaimExpiresAt) }

// IssuedAt returns the iat claim.
func (c ClaimsSet) IssuedAt() (time.Time, bool) { return c.Time(oauth.ClaimIssuedAt) }

// NotBefore returns the nbf claim.
func (c ClaimsSet) NotBefore() (time.Time, bool) { return c.Time(oauth.ClaimNotBefore) }

// Issuer returns the iss claim, or nil when absent.
func (c ClaimsSet) Issuer() *url.URL {
	u, _ := c[oauth.ClaimIssuer].(*url.URL)
	return u
}

// User is a principal representing a human resource owner.
// Zero numeric identifiers mean the server did not supply them.
type User struct {
	UserID         int
	Type           int
	OrganizationID int
	Username       string
	Nickname       string
	Avatar         string
	Status         int
	Granted        []string
	Claims         ClaimsSet
}

// Name returns the username.
func (u *User) Name() string { return u.Username }

// Authorities returns the authorities supplied by the server.
func (u *User) Authorities() []string { return u.Granted }

// HasAuthority reports whether the user holds the authority.
func (u *User) HasAuthority(authority string) bool {
	return slices.Contains(u.Granted, authority)
}

// Attributes returns the normalized claims.
func (u *User) Attributes() ClaimsSet { return u.Claims }

// Client is a principal representing a machine client.
type Client struct {
	ClientID string
	// Scopes preserves the order the server listed them in.
	Scopes  []string
	Granted []string
	Claims  ClaimsSet
}

// Name returns the client id.
func (c *Client) Name() string { return c.ClientID }

// Authorities returns SCOPE_-prefixed authorities derived from the scopes.
func (c *Client) Authorities() []string { return c.Granted }

// HasAuthority reports whether the client holds the authority.
func (c *Client) HasAuthority(authority string) bool {
	return slices.Contains(c.Granted, authority)
}

// Attributes returns the normalized claims.
func (c *Client) Attributes() ClaimsSet { return c.Claims }

// ScopeAuthorities derives the client authority set from a scope list.
// Order follows the scopes; duplicates are dropped.
func ScopeAuthorities(scopes []string) []string {
	if len(scopes) == 0 {
		return []string{}
	}
	authorities := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		authority := oauth.AuthorityScopePrefix + scope
		if _, dup := seen[authority]; dup {
			continue
		}
		seen[authority] = struct{}{}
		authorities = append(authorities, authority)
	}
	return authorities
}

// IsUser reports whether p is a *User.
func IsUser(p Principal) bool {
	_, ok := p.(*User)
	return ok
}

// IsClient reports whether p is a *Client.
func IsClient(p Principal) bool {
	_, ok := p.(*Client)
	return ok
}
