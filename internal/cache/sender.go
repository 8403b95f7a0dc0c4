package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jamesprial/token-introspector/internal/introspect/exchange"
	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// Sender is an exchange.Sender that serves repeated introspection requests
// from a Store and coalesces concurrent identical requests into one call.
// Only 200 responses are stored. Keys are hashes, never raw tokens.
type Sender struct {
	next   exchange.Sender
	store  Store
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time

	// flightTimeout bounds a coalesced call once it is detached from its callers.
	flightTimeout time.Duration
}

// DefaultFlightTimeout bounds a shared upstream call.
const DefaultFlightTimeout = 30 * time.Second

var _ exchange.Sender = (*Sender)(nil)

// NewSender wraps next. A nil store disables caching but keeps coalescing.
func NewSender(next exchange.Sender, store Store, ttl time.Duration, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		next:          next,
		store:         store,
		ttl:           ttl,
		logger:        logger,
		now:           time.Now,
		flightTimeout: DefaultFlightTimeout,
	}
}

// Decorator returns a function suitable for introspect.WithSenderDecorator.
func Decorator(store Store, ttl time.Duration, logger *slog.Logger) func(exchange.Sender) exchange.Sender {
	return func(next exchange.Sender) exchange.Sender {
		return NewSender(next, store, ttl, logger)
	}
}

// Send returns a cached response for req when one exists.
func (s *Sender) Send(ctx context.Context, req *http.Request) (*exchange.RawResponse, error) {
	key, ok := requestKey(req)
	if !ok {
		return s.next.Send(ctx, req)
	}

	if resp, ok := s.lookup(ctx, key); ok {
		return resp, nil
	}

	ch := s.group.DoChan(key, func() (any, error) {
		// The flight outlives any single caller; each caller waits on its own ctx.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.flightTimeout)
		defer cancel()
		resp, err := s.next.Send(fctx, req)
		if err != nil {
			return nil, err
		}
		s.remember(fctx, key, resp)
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, introspecterr.NewTransportError("Send", req.URL.Redacted(), ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("introspection request coalesced")
		}
		return res.Val.(*exchange.RawResponse), nil
	}
}

func (s *Sender) lookup(ctx context.Context, key string) (*exchange.RawResponse, bool) {
	if s.store == nil {
		return nil, false
	}
	b, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("introspection cache read failed", "error", err)
		}
		return nil, false
	}
	var resp exchange.RawResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		s.logger.Warn("discarding corrupt introspection cache entry", "error", err)
		_ = s.store.Delete(ctx, key)
		return nil, false
	}
	return &resp, true
}

func (s *Sender) remember(ctx context.Context, key string, resp *exchange.RawResponse) {
	if s.store == nil || resp == nil || resp.StatusCode != http.StatusOK {
		return
	}
	ttl := s.entryTTL(resp)
	if ttl <= 0 {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, key, b, ttl); err != nil {
		s.logger.Warn("introspection cache write failed", "error", err)
	}
}

// entryTTL caps the configured ttl at the token's exp when a JSON body
// carries one. Signed bodies use the configured ttl.
func (s *Sender) entryTTL(resp *exchange.RawResponse) time.Duration {
	ttl := s.ttl
	var body struct {
		Exp *json.Number `json:"exp"`
	}
	if json.Unmarshal(resp.Body, &body) != nil || body.Exp == nil {
		return ttl
	}
	exp, err := body.Exp.Int64()
	if err != nil {
		return ttl
	}
	if remaining := time.Unix(exp, 0).Sub(s.now()); remaining < ttl {
		return remaining
	}
	return ttl
}

// requestKey hashes everything that selects the response: target, client
// credentials, accepted format and the form body.
func requestKey(req *http.Request) (string, bool) {
	if req == nil || req.URL == nil || req.GetBody == nil {
		return "", false
	}
	body, err := req.GetBody()
	if err != nil {
		return "", false
	}
	defer func() { _ = body.Close() }()

	h := sha256.New()
	for _, part := range []string{
		req.Method,
		req.URL.String(),
		req.Header.Get(oauth.HeaderAuthorization),
		req.Header.Get(oauth.HeaderAccept),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	if _, err := io.Copy(h, body); err != nil {
		return "", false
	}
	return hex.EncodeToString(h.Sum(nil)), true
}
