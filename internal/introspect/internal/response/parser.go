// Package response decodes raw introspection responses into a Result.
package response

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/jamesprial/token-introspector/internal/introspect/exchange"
	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
	"github.com/jamesprial/token-introspector/pkg/oauth"
)

// Result is either *Success or *Failure.
type Result interface {
	isResult()
}

// Success is a structurally valid RFC 7662 response. Fields holds every
// top-level member with JSON numbers kept as json.Number. Expiry and issuer
// are not checked here: liveness is decided by Active alone.
type Success struct {
	Active bool
	Fields map[string]any
}

// Failure is an RFC 6749 error object returned instead of a response.
type Failure struct {
	Reason      string
	Description string
}

func (*Success) isResult() {}
func (*Failure) isResult() {}

// Parser turns raw responses into results. It is immutable and safe for
// concurrent use.
type Parser struct {
	verifier      *JWTVerifier
	requireSigned bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithJWTVerifier enables application/token-introspection+jwt responses.
func WithJWTVerifier(v *JWTVerifier) Option {
	return func(p *Parser) { p.verifier = v }
}

// WithRequireSigned rejects plain JSON responses.
func WithRequireSigned(require bool) Option {
	return func(p *Parser) { p.requireSigned = require }
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse validates the status and shape of raw. Every error is an
// ErrProtocol domain error.
func (p *Parser) Parse(ctx context.Context, raw *exchange.RawResponse) (Result, error) {
	const op = "Parse"

	if raw == nil {
		return nil, introspecterr.NewProtocolError(op, "empty response")
	}
	if raw.StatusCode != http.StatusOK {
		return nil, introspecterr.NewUnexpectedStatusError(op, raw.StatusCode)
	}

	if isSignedResponse(raw.ContentType()) {
		if p.verifier == nil {
			return nil, introspecterr.NewProtocolError(op, "signed response received but no verifier is configured")
		}
		fields, err := p.verifier.Verify(ctx, string(bytes.TrimSpace(raw.Body)))
		if err != nil {
			return nil, introspecterr.WrapProtocolError(op, err)
		}
		return fromFields(op, fields)
	}

	if p.requireSigned {
		return nil, introspecterr.NewProtocolError(op, "unsigned response rejected")
	}

	fields, err := decodeObject(raw.Body)
	if err != nil {
		return nil, introspecterr.WrapProtocolError(op, err)
	}
	return fromFields(op, fields)
}

func isSignedResponse(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == oauth.ContentTypeIntrospectionJWT
}

// decodeObject decodes body as a single JSON object with numbers preserved.
func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("malformed JSON: trailing data")
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("response is not a JSON object")
	}
	return fields, nil
}

func fromFields(op string, fields map[string]any) (Result, error) {
	activeRaw, present := fields[oauth.ClaimActive]
	if !present {
		if reason, ok := fields[oauth.ErrorField].(string); ok {
			desc, _ := fields[oauth.ErrorDescriptionField].(string)
			return &Failure{Reason: reason, Description: desc}, nil
		}
		return nil, introspecterr.NewProtocolError(op, "missing required member \"active\"")
	}
	active, ok := activeRaw.(bool)
	if !ok {
		return nil, introspecterr.NewProtocolError(op, "member \"active\" is not a boolean")
	}

	if err := checkStandardClaims(fields); err != nil {
		return nil, introspecterr.WrapProtocolError(op, err)
	}
	return &Success{Active: active, Fields: fields}, nil
}

var (
	stringClaims = []string{
		oauth.ClaimClientID, oauth.ClaimIssuer, oauth.ClaimScope,
		oauth.ClaimSubject, oauth.ClaimUsername, oauth.ClaimTokenType, oauth.ClaimJTI,
	}
	numericClaims = []string{oauth.ClaimExpiresAt, oauth.ClaimIssuedAt, oauth.ClaimNotBefore}
)

// checkStandardClaims rejects RFC 7662 members carrying the wrong JSON type.
// Extension members are left to the claims stage.
func checkStandardClaims(fields map[string]any) error {
	for _, name := range stringClaims {
		if v, ok := fields[name]; ok && v != nil {
			if _, ok := v.(string); !ok {
				return fmt.Errorf("member %q is not a string", name)
			}
		}
	}
	for _, name := range numericClaims {
		if v, ok := fields[name]; ok && v != nil {
			switch v.(type) {
			case json.Number, float64:
			default:
				return fmt.Errorf("member %q is not a number", name)
			}
		}
	}
	if v, ok := fields[oauth.ClaimAudience]; ok && v != nil {
		switch aud := v.(type) {
		case string:
		case []any:
			for _, a := range aud {
				if _, ok := a.(string); !ok {
					return fmt.Errorf("member %q contains a non-string entry", oauth.ClaimAudience)
				}
			}
		default:
			return fmt.Errorf("member %q is neither a string nor an array", oauth.ClaimAudience)
		}
	}
	return nil
}
