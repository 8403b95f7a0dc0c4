// Package jwks fetches and caches the authorization server's signing keys,
// used to verify signed introspection responses.
package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// ErrKeyNotFound indicates the signing key (kid) is not in the key set.
var ErrKeyNotFound = errors.New("key not found")

// Doer executes HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a single JSON Web Key.
type JWK struct {
	KeyType   string `json:"kty"`
	Use       string `json:"use,omitempty"`
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg,omitempty"`
	// RSA public key parameters
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`
	// EC public key parameters
	Curve string `json:"crv,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
}

// Client fetches a key set from one JWKS URI and caches the keys by kid.
// It is safe for concurrent use.
type Client struct {
	doer    Doer
	jwksURI string
	keys    *gocache.Cache
	fetches singleflight.Group
}

// NewClient creates a JWKS client for jwksURI. Keys are kept for ttl.
func NewClient(jwksURI string, doer Doer, ttl time.Duration) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		doer:    doer,
		jwksURI: jwksURI,
		keys:    gocache.New(ttl, 2*ttl),
	}
}

// GetKey returns the public key for keyID, fetching the key set when the
// key is not cached. Rotated keys are picked up by the refetch.
func (c *Client) GetKey(ctx context.Context, keyID string) (any, error) {
	if keyID == "" {
		return nil, fmt.Errorf("%w: key id is required", ErrKeyNotFound)
	}
	if key, ok := c.keys.Get(keyID); ok {
		return key, nil
	}

	if err := c.RefreshKeys(ctx); err != nil {
		return nil, err
	}

	if key, ok := c.keys.Get(keyID); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, keyID)
}

// RefreshKeys refetches the key set. Concurrent callers share one fetch.
func (c *Client) RefreshKeys(ctx context.Context) error {
	_, err, _ := c.fetches.Do(c.jwksURI, func() (any, error) {
		set, err := c.fetchJWKS(ctx)
		if err != nil {
			return nil, err
		}
		for i := range set.Keys {
			jwk := &set.Keys[i]
			if jwk.KeyID == "" {
				continue
			}
			key, err := jwkToPublicKey(jwk)
			if err != nil {
				// Skip keys we cannot use
				continue
			}
			c.keys.SetDefault(jwk.KeyID, key)
		}
		return nil, nil
	})
	return err
}

// fetchJWKS downloads and decodes the key set.
func (c *Client) fetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURI, nil)
	if err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch failed: endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}

	var set JWKS
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}
	return &set, nil
}
