// Package introspect resolves opaque bearer tokens into principals by
// calling an RFC 7662 token introspection endpoint.
//
// A call runs one linear pipeline: build request, send it, parse the
// response, normalize claims, build the principal. Every stage fails fast
// with one of the error kinds in errors.go; nothing is retried.
package introspect

import (
	"context"
	"errors"
	"log/slog"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
	"github.com/jamesprial/token-introspector/internal/introspect/exchange"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/claims"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/request"
	"github.com/jamesprial/token-introspector/internal/introspect/internal/response"
	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// Introspector resolves an access token into the principal it was issued to.
type Introspector interface {
	// Introspect returns a *principal.User or *principal.Client, or an error
	// matching ErrConfiguration, ErrTransport, ErrProtocol or ErrInactiveToken.
	Introspect(ctx context.Context, token string) (principal.Principal, error)
}

// RequestBuilder builds the introspection request for a token. It replaces
// the default form-encoded POST when set with WithRequestBuilder.
type RequestBuilder = request.Builder

// RemoteIntrospector is the Introspector backed by a remote endpoint.
// It is immutable after construction and safe for concurrent use.
type RemoteIntrospector struct {
	build      RequestBuilder
	sender     exchange.Sender
	parser     *response.Parser
	normalizer *claims.Normalizer
	logger     *slog.Logger
}

var _ Introspector = (*RemoteIntrospector)(nil)

// Introspect runs the pipeline for token.
func (r *RemoteIntrospector) Introspect(ctx context.Context, token string) (principal.Principal, error) {
	const op = "Introspect"

	if r.build == nil {
		return nil, introspecterr.NewConfigurationError(op, errors.New("no request builder configured"))
	}
	req, err := r.build(ctx, token)
	if err != nil {
		return nil, introspecterr.NewConfigurationError(op, err)
	}
	if req == nil {
		return nil, introspecterr.NewConfigurationError(op, errors.New("request builder returned no request"))
	}

	raw, err := r.sender.Send(ctx, req)
	if err != nil {
		if ierrors.KindOf(err) == nil {
			err = introspecterr.NewTransportError(op, req.URL.Redacted(), err)
		}
		return nil, err
	}

	result, err := r.parser.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	var success *response.Success
	switch res := result.(type) {
	case *response.Failure:
		r.logger.Debug("introspection endpoint returned an error object",
			"reason", res.Reason, "description", res.Description)
		return nil, introspecterr.NewIntrospectionFailedError(op, res.Reason)
	case *response.Success:
		success = res
	default:
		return nil, introspecterr.NewProtocolError(op, "unrecognized result")
	}

	claimsSet, isClient, err := r.normalizer.Normalize(success)
	if err != nil {
		return nil, err
	}
	if isClient {
		return claims.BuildClient(claimsSet), nil
	}
	return claims.BuildUser(success.Fields, claimsSet, r.logger), nil
}
