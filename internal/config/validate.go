package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is valid and complete.
// It returns an error if required fields are missing or values are invalid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", describe(err))
	}

	if err := validateIntrospection(&cfg.Introspection); err != nil {
		return fmt.Errorf("invalid introspection config: %w", err)
	}

	if cfg.Cache.Driver == "redis" && cfg.Cache.Redis.Addr == "" {
		return fmt.Errorf("invalid cache config: cache.redis.addr is required for the redis driver")
	}

	return nil
}

// describe rewrites validator errors in terms of configuration keys.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", configKey(fe.Namespace()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// configKey maps a struct namespace like Config.Introspection.ClientID to
// the configuration key introspection.client_id.
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	switch s {
	case "URL":
		return "url"
	case "JWKSURI":
		return "jwks_uri"
	case "ClientID":
		return "client_id"
	case "TTL":
		return "ttl"
	case "DB":
		return "db"
	case "JWKSCacheTTL":
		return "jwks_cache_ttl"
	}
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isLocalhost returns true if the host is localhost or a loopback address.
// It handles bare hostnames and host:port combinations.
func isLocalhost(host string) bool {
	if host == "localhost" || host == "127.0.0.1" || host == "[::1]" {
		return true
	}
	for _, prefix := range []string{"localhost:", "127.0.0.1:", "[::1]:"} {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}

// validateEndpoint requires an absolute http(s) URL, https unless the host
// is local.
func validateEndpoint(key, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", key)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("%s must use http or https scheme", key)
	}
	if parsed.Scheme == "http" && !isLocalhost(parsed.Host) {
		return fmt.Errorf("%s must use https scheme for non-localhost hosts", key)
	}
	return nil
}

func validateIntrospection(cfg *IntrospectionConfig) error {
	if cfg.URL == "" && cfg.Issuer == "" {
		return fmt.Errorf("introspection.url is required unless introspection.issuer is set")
	}
	endpoints := []struct{ key, value string }{
		{"introspection.url", cfg.URL},
		{"introspection.issuer", cfg.Issuer},
		{"introspection.jwks_uri", cfg.JWKSURI},
	}
	for _, e := range endpoints {
		if e.value == "" {
			continue
		}
		if err := validateEndpoint(e.key, e.value); err != nil {
			return err
		}
	}
	if cfg.ResponseFormat == "jwt" && cfg.Issuer == "" && cfg.JWKSURI == "" {
		return fmt.Errorf("introspection.response_format jwt requires introspection.issuer or introspection.jwks_uri")
	}
	return nil
}
