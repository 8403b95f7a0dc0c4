// Package introspecterr provides constructors for the introspection error
// taxonomy. It is a leaf package so that the pipeline stages can build
// errors without importing internal/introspect.
package introspecterr

import (
	"errors"
	"fmt"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
)

// Domain identifier for introspection errors.
const domainIntrospect = "introspect"

// NewConfigurationError reports a misconfigured builder or collaborator.
func NewConfigurationError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrConfiguration, err)
}

// NewTransportError reports a failed exchange with the introspection endpoint.
func NewTransportError(op, endpoint string, err error) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrTransport, err).
		WithContext("endpoint", endpoint)
}

// NewProtocolError reports a response that is not a usable introspection result.
func NewProtocolError(op, message string) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrProtocol, errors.New(message))
}

// WrapProtocolError reports a response that failed to parse.
func WrapProtocolError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrProtocol, err)
}

// NewUnexpectedStatusError reports a non-200 introspection response.
func NewUnexpectedStatusError(op string, status int) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrProtocol, fmt.Errorf("unexpected status %d", status)).
		WithContext("status", status)
}

// NewIntrospectionFailedError reports an RFC 6749 error object returned in
// place of an introspection response.
func NewIntrospectionFailedError(op, reason string) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrProtocol, errors.New("introspection failed")).
		WithContext("reason", reason)
}

// NewInvalidIssuerError reports an iss claim that is not a well-formed URI.
func NewInvalidIssuerError(op, issuer string) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrProtocol, errors.New("invalid issuer")).
		WithContext("issuer", issuer)
}

// NewInactiveTokenError reports a token the authorization server considers inactive.
func NewInactiveTokenError(op string) *ierrors.DomainError {
	return ierrors.New(domainIntrospect, op, ierrors.ErrInactiveToken, nil)
}
