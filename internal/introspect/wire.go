package introspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jamesprial/token-introspector/internal/introspect/exchange"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/claims"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/discovery"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/jwks"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/request"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/response"
	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// Response formats.
const (
	FormatJSON = "json"
	FormatJWT  = "jwt"
)

// Config holds the settings for a RemoteIntrospector.
type Config struct {
	// Endpoint is the introspection endpoint URL. It may be left empty when
	// Issuer is set and the introspector is built with Discover.
	Endpoint string

	// Issuer is the authorization server issuer, used for discovery and to
	// check the iss of signed responses.
	Issuer string

	// JWKSURI locates the keys for signed responses. Discovered when empty.
	JWKSURI string

	ClientID     string
	ClientSecret string

	// AuthMethod is "basic" (default), "post" or "custom".
	AuthMethod string

	// EncodeBasicCredentials form-encodes client credentials sent with
	// the basic method.
	EncodeBasicCredentials bool

	// ResponseFormat is "json" (default) or "jwt" (RFC 9701).
	ResponseFormat string

	// Timeout bounds each call made by the default HTTP client.
	Timeout time.Duration

	// MaxResponseBytes caps the response body size.
	MaxResponseBytes int64

	// JWKSCacheTTL is how long signing keys are cached.
	JWKSCacheTTL time.Duration
}

// KeySource resolves signing keys by key ID for signed responses.
type KeySource = response.KeySource

type options struct {
	builder    RequestBuilder
	doer       exchange.Doer
	sender     exchange.Sender
	decorators []func(exchange.Sender) exchange.Sender
	keys       KeySource
	logger     *slog.Logger
}

// Option customizes a RemoteIntrospector.
type Option func(*options)

// WithRequestBuilder replaces the default request builder.
func WithRequestBuilder(b RequestBuilder) Option {
	return func(o *options) { o.builder = b }
}

// WithDoer sets the HTTP client used by the default sender, by discovery
// and by the JWKS client.
func WithDoer(d exchange.Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithSender replaces the transport entirely. Errors it returns that are
// not already introspection errors are reported as ErrTransport.
func WithSender(s exchange.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithSenderDecorator wraps the transport, e.g. with a response cache.
// Decorators are applied in order, the last one outermost.
func WithSenderDecorator(d func(exchange.Sender) exchange.Sender) Option {
	return func(o *options) { o.decorators = append(o.decorators, d) }
}

// WithKeySource sets the verification keys for signed responses instead
// of fetching them from JWKSURI.
func WithKeySource(k KeySource) Option {
	return func(o *options) { o.keys = k }
}

// WithLogger sets the logger for lenient-parsing warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// New builds a RemoteIntrospector without touching the network. Invalid
// settings are reported as ErrConfiguration.
func New(cfg Config, opts ...Option) (*RemoteIntrospector, error) {
	return newRemote(cfg, applyOptions(opts))
}

// Discover fills Endpoint and JWKSURI from the issuer's RFC 8414 metadata
// when they are empty, then builds the introspector.
func Discover(ctx context.Context, cfg Config, opts ...Option) (*RemoteIntrospector, error) {
	o := applyOptions(opts)

	needsEndpoint := cfg.Endpoint == "" && o.builder == nil
	needsKeys := isJWTFormat(cfg.ResponseFormat) && cfg.JWKSURI == "" && o.keys == nil
	if cfg.Issuer != "" && (needsEndpoint || needsKeys) {
		md, err := discovery.Fetch(ctx, o.httpDoer(cfg), cfg.Issuer)
		if err != nil {
			return nil, err
		}
		if cfg.Endpoint == "" {
			cfg.Endpoint = md.IntrospectionEndpoint
		}
		if cfg.JWKSURI == "" {
			cfg.JWKSURI = md.JWKSURI
		}
		o.logger.Info("discovered authorization server metadata",
			"issuer", md.Issuer,
			"introspection_endpoint", md.IntrospectionEndpoint,
			"jwks_uri", md.JWKSURI)
	}
	return newRemote(cfg, o)
}

func (o *options) httpDoer(cfg Config) exchange.Doer {
	if o.doer != nil {
		return o.doer
	}
	return &http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}
}

func newRemote(cfg Config, o *options) (*RemoteIntrospector, error) {
	const op = "New"

	doer := o.httpDoer(cfg)
	jwtFormat := isJWTFormat(cfg.ResponseFormat)
	if f := strings.ToLower(cfg.ResponseFormat); f != "" && f != FormatJSON && f != FormatJWT {
		return nil, introspecterr.NewConfigurationError(op, fmt.Errorf("unsupported response format %q", cfg.ResponseFormat))
	}

	builder := o.builder
	if builder == nil {
		if cfg.Endpoint == "" {
			return nil, introspecterr.NewConfigurationError(op, errors.New("introspection endpoint is required"))
		}
		endpoint, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return nil, introspecterr.NewConfigurationError(op, fmt.Errorf("invalid introspection endpoint: %w", err))
		}
		method, err := request.ParseAuthMethod(cfg.AuthMethod)
		if err != nil {
			return nil, introspecterr.NewConfigurationError(op, err)
		}
		accept := oauth.ContentTypeJSON
		if jwtFormat {
			accept = oauth.ContentTypeIntrospectionJWT
		}
		builder, err = request.NewDefault(endpoint, request.Options{
			AuthMethod:        method,
			ClientID:          cfg.ClientID,
			ClientSecret:      cfg.ClientSecret,
			Accept:            accept,
			EncodeCredentials: cfg.EncodeBasicCredentials,
		})
		if err != nil {
			return nil, introspecterr.NewConfigurationError(op, err)
		}
	}

	var parserOpts []response.Option
	if jwtFormat {
		keys := o.keys
		if keys == nil {
			if cfg.JWKSURI == "" {
				return nil, introspecterr.NewConfigurationError(op, errors.New("jwt response format requires a jwks uri or issuer"))
			}
			keys = jwks.NewClient(cfg.JWKSURI, doer, cfg.JWKSCacheTTL)
		}
		parserOpts = append(parserOpts,
			response.WithJWTVerifier(response.NewJWTVerifier(keys, cfg.Issuer, cfg.ClientID)),
			response.WithRequireSigned(true),
		)
	}

	sender := o.sender
	if sender == nil {
		sender = exchange.NewHTTPSender(doer, cfg.MaxResponseBytes)
	}
	for _, decorate := range o.decorators {
		sender = decorate(sender)
	}

	return &RemoteIntrospector{
		build:      builder,
		sender:     sender,
		parser:     response.NewParser(parserOpts...),
		normalizer: claims.NewNormalizer(o.logger),
		logger:     o.logger,
	}, nil
}

func isJWTFormat(format string) bool {
	return strings.EqualFold(format, FormatJWT)
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
