// Package gatewaytest provides an in-process OAGW gateway stand-in for
// integration tests. It serves the gateway's proxy endpoint with scripted
// responses: buffered bodies, SSE event streams delivered chunk by chunk,
// and error responses attributed via the X-OAGW-Error-Source header.
package gatewaytest

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// Route scripts the gateway's behavior for one alias and path.
type Route struct {
	// Status is the response status code. Defaults to 200.
	Status int

	// ContentType, when set, is sent as the Content-Type header.
	ContentType string

	// Body is a buffered response body. Ignored when Events is set.
	Body []byte

	// Events, when set, is streamed as text/event-stream: each entry is
	// written as its own chunk so clients see real chunk boundaries.
	Events []string

	// ErrorSource, when set, is sent as the X-OAGW-Error-Source header.
	ErrorSource string
}

// Request captures one request as the gateway received it.
type Request struct {
	Alias  string
	Path   string
	Method string
	Header http.Header
	Body   []byte
}

// Server is a fake OAGW gateway listening on a local port.
type Server struct {
	app *fiber.App
	ln  net.Listener

	mu       sync.Mutex
	routes   map[string]Route
	received []Request
}

// NewServer starts a gateway stand-in on a random local port.
func NewServer() (*Server, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listening: %w", err)
	}

	s := &Server{
		app:    app,
		ln:     ln,
		routes: make(map[string]Route),
	}

	app.All("/api/oagw/v1/proxy/:alias/*", s.handleProxy)

	go func() {
		// Listener exits with an error on Shutdown; tests don't care.
		_ = app.Listener(ln)
	}()

	return s, nil
}

// URL returns the gateway's base URL.
func (s *Server) URL() string {
	return "http://" + s.ln.Addr().String()
}

// On scripts the response for one alias and upstream path.
func (s *Server) On(alias, path string, route Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[alias+path] = route
}

// Received returns the requests captured so far.
func (s *Server) Received() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.received...)
}

// Close shuts the gateway down.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

func (s *Server) handleProxy(c *fiber.Ctx) error {
	alias := c.Params("alias")
	path := "/" + c.Params("*")

	header := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})

	s.mu.Lock()
	s.received = append(s.received, Request{
		Alias:  alias,
		Path:   path,
		Method: c.Method(),
		Header: header,
		Body:   append([]byte(nil), c.Body()...),
	})
	route, ok := s.routes[alias+path]
	s.mu.Unlock()

	if !strings.HasPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ") {
		c.Set("X-OAGW-Error-Source", "gateway")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	if !ok {
		c.Set("X-OAGW-Error-Source", "gateway")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no upstream registered"})
	}

	status := route.Status
	if status == 0 {
		status = fiber.StatusOK
	}

	if route.ErrorSource != "" {
		c.Set("X-OAGW-Error-Source", route.ErrorSource)
	}
	if route.ContentType != "" {
		c.Set(fiber.HeaderContentType, route.ContentType)
	}

	if route.Events != nil {
		return s.streamEvents(c, status, route)
	}

	return c.Status(status).Send(route.Body)
}

// streamEvents writes SSE records through an io.Pipe so each record reaches
// the client as a separate chunk, mirroring a live upstream stream.
func (s *Server) streamEvents(c *fiber.Ctx, status int, route Route) error {
	if route.ContentType == "" {
		c.Set(fiber.HeaderContentType, "text/event-stream")
	}
	c.Status(status)

	pr, pw := io.Pipe()
	go func() {
		defer pw.Close()
		for _, ev := range route.Events {
			if _, err := io.WriteString(pw, ev); err != nil {
				return
			}
		}
	}()

	// Unknown size (-1) triggers chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)
	return nil
}
