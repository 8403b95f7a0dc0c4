package transport

import (
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
)

var (
	// ErrMissingToken indicates the Authorization header is missing or empty.
	ErrMissingToken = transportcore.ErrMissingToken

	// ErrInvalidToken indicates the Authorization header is not a Bearer credential.
	ErrInvalidToken = transportcore.ErrInvalidToken

	// ErrInsufficientAuthority indicates the principal lacks a required authority.
	ErrInsufficientAuthority = transportcore.ErrInsufficientAuthority

	// ErrServerClosed indicates the server has been closed.
	ErrServerClosed = transportcore.ErrServerClosed
)
