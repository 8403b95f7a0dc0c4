package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamesprial/token-introspector/internal/introspect"
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/oauth"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

// maxFormBytes bounds the POST /v1/introspect body.
const maxFormBytes = 64 << 10

var (
	errMissingTokenParam      = errors.New(`missing "token" parameter`)
	errUnsupportedContentType = errors.New("content type must be " + oauth.ContentTypeFormURLEncoded)
)

// inactiveResponse is returned for any token that does not resolve to a
// principal, matching the RFC 7662 convention of not explaining why.
type inactiveResponse struct {
	Active bool `json:"active"`
}

// introspectResponse is the principal view plus the RFC 7662 active flag.
type introspectResponse struct {
	Active bool `json:"active"`
	*principal.View
}

// introspectHandler introspects a token supplied by an authorized caller.
type introspectHandler struct {
	introspector introspect.Introspector
	responder    transportcore.ErrorResponder
	logger       *slog.Logger
}

// NewIntrospectHandler creates the POST /v1/introspect handler.
func NewIntrospectHandler(
	introspector introspect.Introspector,
	responder transportcore.ErrorResponder,
	logger *slog.Logger,
) http.Handler {
	if introspector == nil {
		panic("introspector cannot be nil")
	}
	if responder == nil {
		panic("responder cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &introspectHandler{
		introspector: introspector,
		responder:    responder,
		logger:       logger,
	}
}

// ServeHTTP reads token from the form body. Any introspection failure is
// reported as {"active":false}; the kind is only logged.
func (h *introspectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "Introspect"

	mediaType, _, _ := strings.Cut(r.Header.Get(oauth.HeaderContentType), ";")
	if !strings.EqualFold(strings.TrimSpace(mediaType), oauth.ContentTypeFormURLEncoded) {
		h.responder.BadRequest(w, transportcore.NewBadRequestError(op, errUnsupportedContentType))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.responder.BadRequest(w, transportcore.NewBadRequestError(op, err))
		return
	}

	token := strings.TrimSpace(r.PostForm.Get(oauth.ParamToken))
	if token == "" {
		h.responder.BadRequest(w, transportcore.NewBadRequestError(op, errMissingTokenParam))
		return
	}

	p, err := h.introspector.Introspect(r.Context(), token)
	if err != nil {
		level := slog.LevelInfo
		if !errors.Is(err, introspect.ErrInactiveToken) {
			level = slog.LevelWarn
		}
		h.logger.Log(r.Context(), level, "introspection on behalf of caller failed",
			"error", err,
			"request_id", transportcore.RequestIDFromContext(r.Context()),
		)
		writeJSON(w, http.StatusOK, inactiveResponse{Active: false})
		return
	}
	if p == nil {
		writeJSON(w, http.StatusOK, inactiveResponse{Active: false})
		return
	}

	writeJSON(w, http.StatusOK, introspectResponse{Active: true, View: principal.NewView(p)})
}
