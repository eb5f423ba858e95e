package oagw

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Request describes one HTTP call to forward through the gateway to an
// aliased upstream service.
type Request struct {
	method  string
	path    string
	headers http.Header
	body    []byte
	timeout time.Duration
}

// Method returns the HTTP method.
func (r *Request) Method() string {
	return r.method
}

// Path returns the upstream path.
func (r *Request) Path() string {
	return r.path
}

// RequestBuilder assembles a Request with a fluent API. The first error
// encountered while building is retained and returned by Build.
type RequestBuilder struct {
	req Request
	err error
}

// NewRequest starts a request builder. The method defaults to GET.
func NewRequest(path string) *RequestBuilder {
	return &RequestBuilder{
		req: Request{
			method:  http.MethodGet,
			path:    path,
			headers: make(http.Header),
		},
	}
}

// Method sets the HTTP method.
func (b *RequestBuilder) Method(method string) *RequestBuilder {
	b.req.method = method
	return b
}

// Header adds a request header to forward upstream.
func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	b.req.headers.Add(key, value)
	return b
}

// Body sets a raw request body.
func (b *RequestBuilder) Body(body []byte) *RequestBuilder {
	b.req.body = body
	return b
}

// JSON marshals v as the request body and sets the Content-Type header.
func (b *RequestBuilder) JSON(v any) *RequestBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("marshaling request body: %w", err)
		}
		return b
	}
	b.req.body = data
	b.req.headers.Set("Content-Type", "application/json")
	return b
}

// Timeout bounds the whole exchange for this request, including body
// consumption. Leave unset for streaming responses.
func (b *RequestBuilder) Timeout(d time.Duration) *RequestBuilder {
	b.req.timeout = d
	return b
}

// Build validates and returns the request.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.req.path == "" {
		return nil, errors.New("request path is required")
	}
	if !strings.HasPrefix(b.req.path, "/") {
		b.req.path = "/" + b.req.path
	}
	req := b.req
	return &req, nil
}
