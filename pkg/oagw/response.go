package oagw

import (
	"context"
	"io"
	"net/http"

	"github.com/oagwlabs/oagw-go/pkg/bridge"
	"github.com/oagwlabs/oagw-go/pkg/sse"
)

// Response is the envelope for one proxied call: status, headers, the error
// source classified once at construction, and exactly one Body.
//
// The consumption methods come in pairs: the context-taking form for callers
// that drive their own concurrency, and a *Blocking form that routes the same
// implementation through the owning client's bridge.
type Response struct {
	status      int
	headers     http.Header
	errorSource ErrorSource
	body        *Body
	bridge      *bridge.Bridge
}

// NewResponse builds a streaming response envelope around a live byte
// source. The error source is classified here and never recomputed.
func NewResponse(status int, headers http.Header, src io.ReadCloser, br *bridge.Bridge) *Response {
	return &Response{
		status:      status,
		headers:     headers,
		errorSource: ClassifyErrorSource(headers),
		body:        NewStreamBody(src),
		bridge:      br,
	}
}

// NewBufferedResponse builds a response envelope around bytes that have
// already fully arrived.
func NewBufferedResponse(status int, headers http.Header, body []byte, br *bridge.Bridge) *Response {
	return &Response{
		status:      status,
		headers:     headers,
		errorSource: ClassifyErrorSource(headers),
		body:        NewBufferedBody(body),
		bridge:      br,
	}
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.status
}

// Headers returns a copy of the response headers. The envelope is immutable:
// mutating the returned map affects neither the response nor the error
// source classified at construction.
func (r *Response) Headers() http.Header {
	return r.headers.Clone()
}

// ErrorSource reports which side of the gateway an error response
// originated from, as classified at construction.
func (r *Response) ErrorSource() ErrorSource {
	return r.errorSource
}

// Bytes buffers the entire body and returns it. Repeated calls return the
// cached bytes.
func (r *Response) Bytes(ctx context.Context) ([]byte, error) {
	return r.body.Bytes(ctx)
}

// BytesBlocking is Bytes for call sites without a context of their own.
func (r *Response) BytesBlocking() ([]byte, error) {
	return bridge.Run(r.bridge, r.Bytes)
}

// Text buffers the body and decodes it as UTF-8 text.
func (r *Response) Text(ctx context.Context) (string, error) {
	return r.body.Text(ctx)
}

// TextBlocking is Text for call sites without a context of their own.
func (r *Response) TextBlocking() (string, error) {
	return bridge.Run(r.bridge, r.Text)
}

// JSON buffers the body and unmarshals it into v.
func (r *Response) JSON(ctx context.Context, v any) error {
	return r.body.JSON(ctx, v)
}

// JSONBlocking is JSON for call sites without a context of their own.
func (r *Response) JSONBlocking(v any) error {
	_, err := bridge.Run(r.bridge, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.body.JSON(ctx, v)
	})
	return err
}

// Stream transfers the raw byte stream to the caller. See Body.Stream.
func (r *Response) Stream() (io.ReadCloser, error) {
	return r.body.Stream()
}

// Events transfers the body as a parsed SSE event stream. See Body.Events.
func (r *Response) Events() (*sse.Stream, error) {
	return r.body.Events()
}

// Close releases the body's source if it has not been consumed.
func (r *Response) Close() error {
	return r.body.Close()
}
