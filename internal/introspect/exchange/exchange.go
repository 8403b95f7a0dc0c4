// Package exchange performs the single network round-trip of an
// introspection and normalizes every transport failure into one error kind.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jamesprial/token-introspector/internal/introspect/introspecterr"
)

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes int64 = 1 << 20

// Doer executes HTTP requests. *http.Client satisfies it; implementations
// must be safe for concurrent use.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RawResponse is a fully read introspection response.
type RawResponse struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"header,omitempty"`
	Body       []byte      `json:"body"`
}

// ContentType returns the Content-Type header of the response.
func (r *RawResponse) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Sender sends an introspection request and returns the raw response.
// Any failure is reported as an ErrTransport domain error.
type Sender interface {
	Send(ctx context.Context, req *http.Request) (*RawResponse, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req *http.Request) (*RawResponse, error)

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, req *http.Request) (*RawResponse, error) {
	return f(ctx, req)
}

// HTTPSender is the default Sender backed by a Doer.
type HTTPSender struct {
	doer     Doer
	maxBytes int64
}

// NewHTTPSender creates a Sender using doer. A nil doer selects
// http.DefaultClient; a non-positive maxBytes selects DefaultMaxResponseBytes.
func NewHTTPSender(doer Doer, maxBytes int64) *HTTPSender {
	if doer == nil {
		doer = http.DefaultClient
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}
	return &HTTPSender{doer: doer, maxBytes: maxBytes}
}

// Send executes req with ctx attached. Non-2xx statuses are not transport
// failures; they are returned for the parser to reject.
func (s *HTTPSender) Send(ctx context.Context, req *http.Request) (*RawResponse, error) {
	endpoint := ""
	if req != nil && req.URL != nil {
		endpoint = req.URL.Redacted()
	}
	if req == nil {
		return nil, introspecterr.NewTransportError("Send", endpoint, errors.New("nil request"))
	}
	if ctx != nil {
		req = req.WithContext(ctx)
	}

	resp, err := s.doer.Do(req)
	if err != nil {
		return nil, introspecterr.NewTransportError("Send", endpoint, err)
	}
	if resp == nil {
		return nil, introspecterr.NewTransportError("Send", endpoint, errors.New("nil response"))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, introspecterr.NewTransportError("Send", endpoint, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > s.maxBytes {
		return nil, introspecterr.NewTransportError("Send", endpoint,
			fmt.Errorf("response body exceeds %d bytes", s.maxBytes))
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}
