package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jamesprial/token-introspector/internal/introspect"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

type instrumented struct {
	next    introspect.Introspector
	metrics *Metrics
}

// Instrument records the outcome and latency of every call to next.
func (m *Metrics) Instrument(next introspect.Introspector) introspect.Introspector {
	return &instrumented{next: next, metrics: m}
}

func (i *instrumented) Introspect(ctx context.Context, token string) (principal.Principal, error) {
	start := time.Now()
	p, err := i.next.Introspect(ctx, token)
	i.metrics.ObserveIntrospection(Outcome(p, err), time.Since(start))
	return p, err
}

// Outcome classifies the result of an introspection.
func Outcome(p principal.Principal, err error) string {
	switch {
	case err == nil && principal.IsClient(p):
		return OutcomeClient
	case err == nil:
		return OutcomeUser
	case errors.Is(err, introspect.ErrInactiveToken):
		return OutcomeInactive
	case errors.Is(err, introspect.ErrProtocol):
		return OutcomeProtocol
	case errors.Is(err, introspect.ErrTransport):
		return OutcomeTransport
	case errors.Is(err, introspect.ErrConfiguration):
		return OutcomeConfiguration
	default:
		return OutcomeUnknown
	}
}
