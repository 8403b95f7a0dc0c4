package introspect

import (
	ierrors "github.com/jamesprial/token-introspector/internal/errors"
)

// Error kinds returned by Introspect. Match them with errors.Is.
var (
	ErrConfiguration = ierrors.ErrConfiguration
	ErrTransport     = ierrors.ErrTransport
	ErrProtocol      = ierrors.ErrProtocol
	ErrInactiveToken = ierrors.ErrInactiveToken
)

// IsAuthenticationFailure reports whether err is any introspection error kind.
func IsAuthenticationFailure(err error) bool {
	return ierrors.IsAuthenticationFailure(err)
}
