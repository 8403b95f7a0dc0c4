package transportcore

import (
	"errors"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
)

// Sentinel errors for transport operations.
var (
	// ErrMissingToken indicates the Authorization header is missing or empty.
	ErrMissingToken = errors.New("missing authorization token")

	// ErrInvalidToken indicates the Authorization header is not a Bearer credential.
	ErrInvalidToken = errors.New("invalid authorization token")

	// ErrUnauthenticated indicates a protected handler ran without a principal.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInsufficientAuthority indicates the principal lacks a required authority.
	ErrInsufficientAuthority = errors.New("insufficient authority")

	// ErrServerClosed indicates the server has been closed and cannot accept requests.
	ErrServerClosed = errors.New("server closed")
)

const domainTransport = "transport"

// NewUnauthorizedError classifies an authentication failure for the responder.
func NewUnauthorizedError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainTransport, op, ierrors.ErrUnauthorized, err)
}

// NewForbiddenError records the authorities the request needed.
func NewForbiddenError(op string, required []string) *ierrors.DomainError {
	return ierrors.New(domainTransport, op, ierrors.ErrForbidden, ErrInsufficientAuthority).
		WithContext("required", required)
}

// NewBadRequestError classifies a malformed request.
func NewBadRequestError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainTransport, op, ierrors.ErrBadRequest, err)
}

// NewInternalError classifies a server-side failure.
func NewInternalError(op string, err error) *ierrors.DomainError {
	return ierrors.New(domainTransport, op, ierrors.ErrInternal, err)
}
