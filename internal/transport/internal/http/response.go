package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	ierrors "github.com/jamesprial/token-introspector/internal/errors"
	"github.com/jamesprial/token-introspector/internal/transport/transportcore"
	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// errorResponse represents a JSON error response body.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorResponder implements transportcore.ErrorResponder.
type errorResponder struct {
	realm  string
	logger *slog.Logger
}

// NewErrorResponder creates an error responder. realm is included in every
// challenge when non-empty.
func NewErrorResponder(realm string, logger *slog.Logger) transportcore.ErrorResponder {
	if logger == nil {
		logger = slog.Default()
	}
	return &errorResponder{realm: realm, logger: logger}
}

// Unauthorized sends 401 with a bearer challenge. Requests that carried no
// credentials get a bare challenge (RFC 6750 Section 3.1); everything else
// is reported as invalid_token without leaking the failure detail.
func (e *errorResponder) Unauthorized(w http.ResponseWriter, err error) {
	challenge := ierrors.NewBearerChallenge("", "").WithRealm(e.realm)
	if !errors.Is(err, transportcore.ErrMissingToken) {
		challenge.ErrorCode = ierrors.ErrorCodeInvalidToken
		challenge.ErrorDescription = "the access token is not valid"
	}

	w.Header().Set(oauth.HeaderWWWAuthenticate, challenge.WWWAuthenticate())
	e.writeJSON(w, http.StatusUnauthorized, errorResponse{
		Error:   "unauthorized",
		Message: "Authentication required",
	})
}

// Forbidden sends 403 with error="insufficient_scope". The required
// authorities are reported in the scope parameter.
func (e *errorResponder) Forbidden(w http.ResponseWriter, required []string, err error) {
	joined := strings.Join(required, " ")
	challenge := ierrors.NewBearerChallenge(ierrors.ErrorCodeInsufficientScope, "").
		WithRealm(e.realm).
		WithScope(joined)

	e.logger.Warn("forbidden request", "error", err, "required", required)

	w.Header().Set(oauth.HeaderWWWAuthenticate, challenge.WWWAuthenticate())
	e.writeJSON(w, http.StatusForbidden, errorResponse{
		Error:   ierrors.ErrorCodeInsufficientScope,
		Message: "Required authorities: " + joined,
	})
}

// InternalError sends a 500 Internal Server Error response.
func (e *errorResponder) InternalError(w http.ResponseWriter, err error) {
	e.logger.Error("internal server error", "error", err)

	e.writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   "internal_error",
		Message: "An internal server error occurred",
	})
}

// BadRequest sends a 400 Bad Request response.
func (e *errorResponder) BadRequest(w http.ResponseWriter, err error) {
	e.logger.Warn("bad request", "error", err)

	message := "Invalid request"
	if err != nil {
		message = cause(err).Error()
	}
	e.writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   ierrors.ErrorCodeInvalidRequest,
		Message: message,
	})
}

// cause strips the transport classification so clients see only the
// underlying reason.
func cause(err error) error {
	var de *ierrors.DomainError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err
	}
	return err
}

func (e *errorResponder) writeJSON(w http.ResponseWriter, status int, body errorResponse) {
	w.Header().Set(oauth.HeaderContentType, oauth.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		e.logger.Error("failed to encode error response", "error", err)
	}
}
