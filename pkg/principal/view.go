package principal

import (
	"net/url"
)

// Principal kinds reported in View.Kind.
const (
	KindUser   = "user"
	KindClient = "client"
)

// View is the JSON rendering of a principal used by the HTTP server and CLI.
type View struct {
	Kind           string         `json:"kind"`
	Name           string         `json:"name"`
	UserID         int            `json:"user_id,omitempty"`
	Type           int            `json:"type,omitempty"`
	OrganizationID int            `json:"organization_id,omitempty"`
	Nickname       string         `json:"nickname,omitempty"`
	Avatar         string         `json:"avatar,omitempty"`
	Status         int            `json:"status,omitempty"`
	ClientID       string         `json:"client_id,omitempty"`
	Scopes         []string       `json:"scopes,omitempty"`
	Authorities    []string       `json:"authorities"`
	Attributes     map[string]any `json:"attributes"`
}

// NewView renders p. It returns nil for a nil principal.
func NewView(p Principal) *View {
	if p == nil {
		return nil
	}
	v := &View{
		Name:        p.Name(),
		Authorities: p.Authorities(),
		Attributes:  renderClaims(p.Attributes()),
	}
	if v.Authorities == nil {
		v.Authorities = []string{}
	}
	switch t := p.(type) {
	case *User:
		v.Kind = KindUser
		v.UserID = t.UserID
		v.Type = t.Type
		v.OrganizationID = t.OrganizationID
		v.Nickname = t.Nickname
		v.Avatar = t.Avatar
		v.Status = t.Status
	case *Client:
		v.Kind = KindClient
		v.ClientID = t.ClientID
		v.Scopes = t.Scopes
	}
	return v
}

// renderClaims makes the claim values JSON friendly. Timestamps encode
// natively; URLs are flattened to their string form.
func renderClaims(claims ClaimsSet) map[string]any {
	out := make(map[string]any, len(claims))
	for k, v := range claims {
		if u, ok := v.(*url.URL); ok {
			out[k] = u.String()
			continue
		}
		out[k] = v
	}
	return out
}
