// Package config loads the introspector configuration from an optional
// YAML file, INTROSPECTOR_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. INTROSPECTOR_CACHE_DRIVER.
const EnvPrefix = "INTROSPECTOR"

// Flag names registered by RegisterFlags.
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagAddr      = "addr"
)

// Config holds the complete configuration.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Introspection IntrospectionConfig `mapstructure:"introspection"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig configures the HTTP resource server.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	// IdleTimeout of 0 means no timeout.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"gte=0"`

	// IntrospectAuthority is required to call POST /v1/introspect.
	IntrospectAuthority string `mapstructure:"introspect_authority" validate:"required"`

	// Realm is sent in WWW-Authenticate challenges when non-empty.
	Realm string `mapstructure:"realm"`
}

// IntrospectionConfig configures the remote introspection endpoint.
type IntrospectionConfig struct {
	// URL may be empty when Issuer is set; it is then discovered.
	URL               string        `mapstructure:"url"`
	Issuer            string        `mapstructure:"issuer"`
	JWKSURI           string        `mapstructure:"jwks_uri"`
	ClientID          string        `mapstructure:"client_id" validate:"required_unless=AuthMethod custom"`
	ClientSecret      string        `mapstructure:"client_secret"`
	AuthMethod        string        `mapstructure:"auth_method" validate:"oneof=basic post custom"`
	ResponseFormat    string        `mapstructure:"response_format" validate:"oneof=json jwt"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxResponseBytes  int64         `mapstructure:"max_response_bytes" validate:"gt=0"`
	JWKSCacheTTL      time.Duration `mapstructure:"jwks_cache_ttl" validate:"gt=0"`
	EncodeCredentials bool          `mapstructure:"encode_basic_credentials"`
}

// CacheConfig configures the introspection response cache.
type CacheConfig struct {
	Driver string        `mapstructure:"driver" validate:"oneof=none memory redis"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Redis  RedisConfig   `mapstructure:"redis"`
}

// RedisConfig configures the redis cache driver.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

// defaults lists every key with its default. Keys without a default are
// listed too so that AutomaticEnv can populate them on Unmarshal.
var defaults = map[string]any{
	"server.addr":                 ":8080",
	"server.read_timeout":         "30s",
	"server.write_timeout":        "30s",
	"server.idle_timeout":         "120s",
	"server.introspect_authority": "SCOPE_introspect",
	"server.realm":                "",

	"introspection.url":                      "",
	"introspection.issuer":                   "",
	"introspection.jwks_uri":                 "",
	"introspection.client_id":                "",
	"introspection.client_secret":            "",
	"introspection.auth_method":              "basic",
	"introspection.encode_basic_credentials": false,
	"introspection.response_format":          "json",
	"introspection.timeout":                  "10s",
	"introspection.max_response_bytes":       1 << 20,
	"introspection.jwks_cache_ttl":           "1h",

	"cache.driver":         "none",
	"cache.ttl":            "30s",
	"cache.redis.addr":     "localhost:6379",
	"cache.redis.password": "",
	"cache.redis.db":       0,
	"cache.redis.prefix":   "introspect",

	"metrics.enabled": true,

	"log.level":  "info",
	"log.format": "json",
}

// RegisterFlags adds the global flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagConfig, "", "path to the configuration file")
	fs.String(FlagLogLevel, "info", "log level (debug, info, warn, error)")
	fs.String(FlagLogFormat, "json", "log format (json, text)")
	fs.String(FlagAddr, ":8080", "address the HTTP server listens on")
}

var flagKeys = map[string]string{
	FlagLogLevel:  "log.level",
	FlagLogFormat: "log.format",
	FlagAddr:      "server.addr",
}

// New returns a viper instance with defaults, environment binding and, if
// fs is not nil, the flags registered by RegisterFlags bound to their keys.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}
	return v, nil
}

// Load reads the configuration and validates it. An explicit --config file
// must exist; otherwise introspector.yaml is looked up in ., $HOME/.introspector
// and /etc/introspector and may be absent.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v, err := New(fs)
	if err != nil {
		return nil, err
	}

	configFile := ""
	if fs != nil {
		configFile, _ = fs.GetString(FlagConfig)
	}
	if err := readConfigFile(v, configFile); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("introspector")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.introspector")
	v.AddConfigPath("/etc/introspector")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration.
// The client secret and redis password are redacted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Addr: %s, IntrospectionURL: %s, Issuer: %s, ClientID: %s, ClientSecret: %s, AuthMethod: %s, ResponseFormat: %s, Timeout: %v, CacheDriver: %s, CacheTTL: %v, RedisAddr: %s, RedisPassword: %s, Metrics: %t, Log: %s/%s}",
		c.Server.Addr, c.Introspection.URL, c.Introspection.Issuer, c.Introspection.ClientID,
		redact(c.Introspection.ClientSecret), c.Introspection.AuthMethod, c.Introspection.ResponseFormat,
		c.Introspection.Timeout, c.Cache.Driver, c.Cache.TTL, c.Cache.Redis.Addr, redact(c.Cache.Redis.Password),
		c.Metrics.Enabled, c.Log.Level, c.Log.Format)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}
