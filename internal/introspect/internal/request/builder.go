// Package request converts a bearer token into an RFC 7662 introspection request.
package request

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// AuthMethod selects how the resource server authenticates to the
// introspection endpoint.
type AuthMethod string

const (
	// AuthBasic sends client credentials with HTTP Basic authentication.
	AuthBasic AuthMethod = "basic"

	// AuthPost sends client credentials as form parameters (client_secret_post).
	AuthPost AuthMethod = "post"

	// AuthCustom sends no credentials; the caller's transport authenticates itself.
	AuthCustom AuthMethod = "custom"
)

// ParseAuthMethod parses a configured auth method name.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch m := AuthMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case AuthBasic, AuthPost, AuthCustom:
		return m, nil
	case "":
		return AuthBasic, nil
	default:
		return "", fmt.Errorf("unsupported auth method %q", s)
	}
}

// Builder converts a token into a ready-to-send introspection request.
// Returning a nil request or an error is a configuration failure.
type Builder func(ctx context.Context, token string) (*http.Request, error)

// Options configures the default builder.
type Options struct {
	AuthMethod   AuthMethod
	ClientID     string
	ClientSecret string

	// Accept overrides the Accept header; defaults to application/json.
	Accept string

	// EncodeCredentials form-encodes the Basic credentials before base64
	// (RFC 6749 Section 2.3.1). Off by default: many servers compare the
	// decoded pair verbatim and reject secrets containing '+', '/' or '='.
	EncodeCredentials bool
}

// NewDefault returns the default builder for the given endpoint.
func NewDefault(endpoint *url.URL, opts Options) (Builder, error) {
	if endpoint == nil || !endpoint.IsAbs() {
		return nil, fmt.Errorf("introspection endpoint must be an absolute URL")
	}
	method := opts.AuthMethod
	if method == "" {
		method = AuthBasic
	}
	if method != AuthCustom && opts.ClientID == "" {
		return nil, fmt.Errorf("client id is required for %s client authentication", method)
	}
	accept := opts.Accept
	if accept == "" {
		accept = oauth.ContentTypeJSON
	}
	target := endpoint.String()

	return func(ctx context.Context, token string) (*http.Request, error) {
		form := url.Values{}
		form.Set(oauth.ParamToken, token)
		if method == AuthPost {
			form.Set(oauth.ParamClientID, opts.ClientID)
			form.Set(oauth.ParamClientSecret, opts.ClientSecret)
		}

		if ctx == nil {
			ctx = context.Background()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set(oauth.HeaderAccept, accept)
		req.Header.Set(oauth.HeaderContentType, oauth.ContentTypeFormURLEncoded)
		if method == AuthBasic {
			id, secret := opts.ClientID, opts.ClientSecret
			if opts.EncodeCredentials {
				id, secret = url.QueryEscape(id), url.QueryEscape(secret)
			}
			req.SetBasicAuth(id, secret)
		}
		return req, nil
	}, nil
}
