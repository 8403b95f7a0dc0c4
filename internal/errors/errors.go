// Package errors provides the typed error infrastructure shared by the
// introspection pipeline and the HTTP resource server.
package errors

import (
	"errors"
	"fmt"
)

// Introspection error kinds. Every failure returned by the introspector
// matches exactly one of these via errors.Is.
var (
	// ErrConfiguration indicates a misconfigured builder or collaborator.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransport indicates the introspection endpoint could not be reached
	// or the exchange with it failed before a response was obtained.
	ErrTransport = errors.New("introspection transport error")

	// ErrProtocol indicates the endpoint answered with something that is not
	// a usable RFC 7662 success response.
	ErrProtocol = errors.New("introspection protocol error")

	// ErrInactiveToken indicates the endpoint reported active=false.
	ErrInactiveToken = errors.New("token is not active")
)

// HTTP-facing kinds. The resource server wraps its own failures in a
// DomainError of one of these kinds before handing them to the responder.
var (
	// ErrUnauthorized indicates authentication is required or failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated principal lacks an authority.
	ErrForbidden = errors.New("forbidden")

	// ErrBadRequest indicates invalid request parameters or format.
	ErrBadRequest = errors.New("bad request")

	// ErrInternal indicates an internal server error.
	ErrInternal = errors.New("internal error")
)

// DomainError represents a domain-specific error with context.
// It wraps an underlying error and records the domain, the failing
// operation and a kind sentinel used for classification.
type DomainError struct {
	// Domain identifies the subsystem where the error occurred (e.g., "introspect").
	Domain string

	// Op identifies the operation that failed (e.g., "Introspect", "Parse").
	Op string

	// Kind is the sentinel error that categorizes this error.
	Kind error

	// Err is the underlying wrapped error, if any.
	Err error

	// Context provides additional key-value pairs for logging.
	Context map[string]any
}

// New creates a new DomainError.
//
// Parameters:
//   - domain: the subsystem identifier (e.g., "introspect", "transport")
//   - op: the operation that failed
//   - kind: sentinel error indicating the error category
//   - err: underlying error to wrap (may be nil)
func New(domain, op string, kind, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Err:     err,
		Context: make(map[string]any),
	}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %v: %v", e.Domain, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s.%s: %v", e.Domain, e.Op, e.Kind)
}

// Unwrap returns the underlying wrapped error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error.
// It checks both the Kind field and the wrapped error chain.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// WithContext adds a key-value pair to the error's context and returns the error
// for chaining.
func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the introspection kind carried by err, or nil when err is not
// one of ErrConfiguration, ErrTransport, ErrProtocol or ErrInactiveToken.
func KindOf(err error) error {
	for _, kind := range []error{ErrInactiveToken, ErrProtocol, ErrTransport, ErrConfiguration} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// IsAuthenticationFailure reports whether err is one of the introspection
// kinds. Callers are expected to reject the request uniformly in that case.
func IsAuthenticationFailure(err error) bool {
	return KindOf(err) != nil
}
