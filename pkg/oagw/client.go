// Package oagw is a client SDK for the OAGW gateway: a proxying layer that
// forwards HTTP calls to third-party services registered under an alias.
//
// A call goes through the gateway's proxy endpoint
// ({base}/api/oagw/v1/proxy/{alias}{path}) and comes back as a Response
// whose body can be consumed exactly once: buffered, as text, as JSON, as a
// raw byte stream, or as a parsed SSE event stream.
package oagw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oagwlabs/oagw-go/pkg/bridge"
)

const proxyPathPrefix = "/api/oagw/v1/proxy"

// DefaultTimeout bounds the wait for response headers when Config.Timeout
// is unset.
const DefaultTimeout = 30 * time.Second

// Config holds the settings for a gateway client.
type Config struct {
	// BaseURL is the gateway endpoint, e.g. "https://oagw.internal.cf".
	BaseURL string

	// AuthToken is the bearer token identifying this client to the gateway.
	AuthToken string

	// Timeout bounds the wait for response headers. It deliberately does not
	// bound body consumption, so long-lived SSE streams are unaffected.
	// Per-request timeouts set via RequestBuilder.Timeout bound the whole
	// exchange instead.
	Timeout time.Duration
}

// Client executes HTTP requests through the OAGW gateway.
//
// The client owns one bridge shared by all its blocking calls; it is created
// lazily on the first blocking call and reused until Close.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     *zap.Logger
	bridge     *bridge.Bridge
}

// NewClient creates a gateway client from cfg. A nil logger disables logging.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	if cfg.AuthToken == "" {
		return nil, errors.New("gateway auth token is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		authToken: cfg.AuthToken,
		httpClient: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: timeout,
			},
		},
		logger: logger,
		bridge: bridge.New(),
	}, nil
}

// Execute forwards req through the gateway to the service registered under
// alias and returns the streaming response envelope. The caller must consume
// or Close the response to release the connection.
func (c *Client) Execute(ctx context.Context, alias string, req *Request) (*Response, error) {
	if alias == "" {
		return nil, errors.New("service alias is required")
	}
	if req == nil {
		return nil, errors.New("request is required")
	}

	url := fmt.Sprintf("%s%s/%s%s", c.baseURL, proxyPathPrefix, alias, req.path)

	var cancel context.CancelFunc
	if req.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.timeout)
	}

	var body io.Reader
	if len(req.body) > 0 {
		body = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, url, body)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("building gateway request: %w", err)
	}

	setForwardHeaders(httpReq, req.headers)
	httpReq.Header.Set("Authorization", "Bearer "+c.authToken)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	c.logger.Debug("forwarding request through gateway",
		zap.String("method", req.method),
		zap.String("alias", alias),
		zap.String("path", req.path),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}

	src := io.ReadCloser(httpResp.Body)
	if cancel != nil {
		// Tie the per-request deadline's release to body closure so the
		// timer keeps bounding body consumption.
		src = &cancelOnClose{ReadCloser: httpResp.Body, cancel: cancel}
	}

	resp := NewResponse(httpResp.StatusCode, httpResp.Header, src, c.bridge)

	if es := resp.ErrorSource(); es != ErrorSourceUnknown {
		c.logger.Debug("gateway attributed error source",
			zap.Stringer("error_source", es),
			zap.Int("status", httpResp.StatusCode),
		)
	}

	return resp, nil
}

// ExecuteBlocking is Execute for call sites without a context of their own.
// It runs the request to completion on the client's bridge.
func (c *Client) ExecuteBlocking(alias string, req *Request) (*Response, error) {
	return bridge.Run(c.bridge, func(ctx context.Context) (*Response, error) {
		return c.Execute(ctx, alias, req)
	})
}

// Close stops the client's bridge and drops idle connections. Responses
// already handed out remain consumable through their context-taking methods.
func (c *Client) Close() {
	c.bridge.Close()
	c.httpClient.CloseIdleConnections()
}

// skipForward is the set of caller headers never forwarded to the gateway.
var skipForward = map[string]struct{}{
	// Hop-by-hop headers: only meaningful for a single transport-level
	// connection.
	"Connection": {},

	// The Host header is rewritten by Go's http.Transport to match the
	// gateway URL.
	"Host": {},

	// Accept-Encoding is stripped so http.Transport negotiates its own
	// compression and transparently decompresses the response.
	"Accept-Encoding": {},

	// Computed by the transport from the actual body.
	"Content-Length": {},
}

// setForwardHeaders copies caller headers onto the outgoing gateway request,
// filtering the ones the client must control itself.
func setForwardHeaders(dst *http.Request, src http.Header) {
	for key, values := range src {
		if _, skip := skipForward[http.CanonicalHeaderKey(key)]; skip {
			continue
		}
		for _, v := range values {
			dst.Header.Add(key, v)
		}
	}
}

// cancelOnClose releases a per-request context deadline when the response
// body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
