package oauth

import (
	"testing"
)

// The wire names are part of the protocol contract with the authorization
// server; a rename here silently breaks every response.
func TestWireNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		got  string
		want string
	}{
		{got: ClaimActive, want: "active"},
		{got: ClaimIsClient, want: "is_client"},
		{got: ClaimInfo, want: "info"},
		{got: ClaimAuthorities, want: "authorities"},
		{got: ClaimAttributes, want: "attributes"},
		{got: InfoUserID, want: "userId"},
		{got: InfoOrganizationID, want: "organizationId"},
		{got: ParamToken, want: "token"},
		{got: ClaimTokenIntrospection, want: "token_introspection"},
		{got: ContentTypeIntrospectionJWT, want: "application/token-introspection+jwt"},
		{got: AuthorityScopePrefix, want: "SCOPE_"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("constant = %q, want %q", tt.got, tt.want)
			}
		})
	}
}
