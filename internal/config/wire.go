package config

import (
	"github.com/jamesprial/token-introspector/internal/cache"
	"github.com/jamesprial/token-introspector/internal/introspect"
)

// IntrospectConfig returns the settings for introspect.New and introspect.Discover.
func (c *Config) IntrospectConfig() introspect.Config {
	in := c.Introspection
	return introspect.Config{
		Endpoint:               in.URL,
		Issuer:                 in.Issuer,
		JWKSURI:                in.JWKSURI,
		ClientID:               in.ClientID,
		ClientSecret:           in.ClientSecret,
		AuthMethod:             in.AuthMethod,
		EncodeBasicCredentials: in.EncodeCredentials,
		ResponseFormat:         in.ResponseFormat,
		Timeout:                in.Timeout,
		MaxResponseBytes:       in.MaxResponseBytes,
		JWKSCacheTTL:           in.JWKSCacheTTL,
	}
}

// CacheConfig returns the settings for cache.NewStore.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Driver: c.Cache.Driver,
		TTL:    c.Cache.TTL,
		Redis: cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
			Prefix:   c.Cache.Redis.Prefix,
		},
	}
}
