package handlers

import (
	"net/http"

	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// principalHandler renders the principal attached by the auth middleware.
type principalHandler struct {
	responder transportcore.ErrorResponder
}

// NewPrincipalHandler creates the GET /v1/principal handler. It must be
// mounted behind Authenticate.
func NewPrincipalHandler(responder transportcore.ErrorResponder) http.Handler {
	if responder == nil {
		panic("responder cannot be nil")
	}
	return &principalHandler{responder: responder}
}

func (h *principalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p, ok := transportcore.PrincipalFromContext(r.Context())
	if !ok {
		h.responder.Unauthorized(w, transportcore.NewUnauthorizedError("Principal", transportcore.ErrUnauthenticated))
		return
	}
	writeJSON(w, http.StatusOK, principal.NewView(p))
}
