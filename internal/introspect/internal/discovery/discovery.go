// Package discovery resolves the introspection and JWKS endpoints of an
// authorization server from its RFC 8414 metadata document.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
)

// WellKnownPath is the RFC 8414 metadata suffix.
const WellKnownPath = "/.well-known/oauth-authorization-server"

// Doer executes HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Metadata is the subset of RFC 8414 authorization server metadata used here.
type Metadata struct {
	Issuer                string `json:"issuer"`
	IntrospectionEndpoint string `json:"introspection_endpoint"`
	JWKSURI               string `json:"jwks_uri,omitempty"`

	IntrospectionEndpointAuthMethods []string `json:"introspection_endpoint_auth_methods_supported,omitempty"`
}

// MetadataURL returns the metadata document location for issuer.
func MetadataURL(issuer string) string {
	return strings.TrimRight(issuer, "/") + WellKnownPath
}

// Fetch downloads and validates the metadata document of issuer.
// Failures are configuration errors: discovery runs once at startup.
func Fetch(ctx context.Context, doer Doer, issuer string) (*Metadata, error) {
	const op = "discovery.Fetch"

	if doer == nil {
		doer = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, MetadataURL(issuer), nil)
	if err != nil {
		return nil, introspecterr.NewConfigurationError(op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doer.Do(req)
	if err != nil {
		return nil, introspecterr.NewConfigurationError(op, fmt.Errorf("metadata fetch failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, introspecterr.NewConfigurationError(op,
			fmt.Errorf("metadata endpoint returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, introspecterr.NewConfigurationError(op, fmt.Errorf("metadata fetch failed: %w", err))
	}

	var md Metadata
	if err := json.Unmarshal(body, &md); err != nil {
		return nil, introspecterr.NewConfigurationError(op, fmt.Errorf("invalid metadata: %w", err))
	}

	if err := Validate(&md, issuer); err != nil {
		return nil, introspecterr.NewConfigurationError(op, err)
	}
	return &md, nil
}

// Validate checks the fields needed by the introspector. The issuer in the
// document must match the one it was fetched from (RFC 8414 Section 3.3).
func Validate(md *Metadata, issuer string) error {
	if strings.TrimRight(md.Issuer, "/") != strings.TrimRight(issuer, "/") {
		return fmt.Errorf("metadata issuer %q does not match %q", md.Issuer, issuer)
	}
	if md.IntrospectionEndpoint == "" {
		return fmt.Errorf("authorization server metadata missing introspection_endpoint field")
	}
	return nil
}
