// Package cache stores introspection responses so repeated presentations
// of the same token skip the network round-trip.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Drivers accepted by NewStore.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// ErrNotFound indicates a cache miss.
var ErrNotFound = errors.New("cache: not found")

// Store is a byte-oriented TTL cache. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config selects and configures a Store.
type Config struct {
	Driver string
	TTL    time.Duration
	Redis  RedisConfig
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewStore builds the Store named by cfg.Driver. It returns nil, nil for
// the "none" driver.
func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemory(cfg.TTL), nil
	case DriverRedis:
		return NewRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}
