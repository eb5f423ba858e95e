package sse

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
)

// Stream reads parsed SSE events from a response body. Events are yielded
// strictly in arrival order; the only buffering is the single in-flight
// record being accumulated between blank-line boundaries.
//
// A Stream is not restartable: once the underlying source is exhausted,
// Next keeps returning nil, nil.
type Stream struct {
	scanner *bufio.Scanner
	src     io.Closer

	// mu guards done and closed; the scanner and the pending record are
	// touched only by the goroutine calling Next.
	mu     sync.Mutex
	done   bool
	closed bool

	// pending record, accumulated until the next blank line.
	id        string
	eventType string
	dataLines []string
	retry     int
	hasFields bool
}

// NewStream returns a Stream that parses SSE events from src.
// The Stream takes ownership of src; Close releases it.
func NewStream(src io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &Stream{
		scanner: scanner,
		src:     src,
		retry:   NoRetry,
	}
}

// Next returns the next parsed SSE event. It blocks until a complete record
// is available (terminated by a blank line) and returns nil, nil when the
// source is exhausted. A source failure mid-stream is returned as-is.
//
// Line terminators are "\n" and "\r\n"; a lone "\r" does not terminate a
// line. Chunk boundaries in the source are invisible to the parse: the same
// bytes produce the same events regardless of how reads split them.
func (s *Stream) Next() (*Event, error) {
	if s.finished() {
		return nil, nil
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// A blank line dispatches the pending record. A blank line with
		// nothing pending is a no-op (leading blank lines, keep-alives).
		if line == "" {
			if s.hasFields {
				return s.flush(), nil
			}
			continue
		}

		// Lines starting with ':' are comments.
		if strings.HasPrefix(line, ":") {
			continue
		}

		s.parseLine(line)
	}

	s.mu.Lock()
	s.done = true
	closed := s.closed
	s.mu.Unlock()

	if err := s.scanner.Err(); err != nil {
		// A read failure caused by Close is an abandoned traversal, not a
		// source failure.
		if closed {
			return nil, nil
		}
		return nil, err
	}

	// Source exhausted without a trailing blank line: emit the pending
	// record rather than dropping the peer's last message.
	if s.hasFields {
		return s.flush(), nil
	}

	return nil, nil
}

// Close releases the underlying byte source. Safe to call from another
// goroutine while Next is blocked on the source: closing unblocks the read
// and the traversal ends cleanly. Subsequent Next calls return nil, nil.
// Close is idempotent.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.src.Close()
}

// finished reports whether the traversal has ended, by exhaustion or Close.
func (s *Stream) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done || s.closed
}

// parseLine accumulates a single non-empty, non-comment SSE line into the
// pending record.
//
// A field line has the form "field:value" where a single space after the
// colon is optional and stripped. A line with no colon at all is not a
// field line and is ignored like any other unknown content.
func (s *Stream) parseLine(line string) {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return
	}
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "data":
		s.dataLines = append(s.dataLines, value)
		s.hasFields = true
	case "id":
		// Repeated ids overwrite; last one wins.
		s.id = value
		s.hasFields = true
	case "event":
		s.eventType = value
		s.hasFields = true
	case "retry":
		// A non-numeric retry value is dropped without failing the stream
		// or the enclosing record.
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			s.retry = n
			s.hasFields = true
		}
	default:
		// Unknown fields are ignored per the SSE spec.
	}
}

// flush builds an Event from the pending record and resets it.
func (s *Stream) flush() *Event {
	eventType := s.eventType
	if eventType == "" {
		eventType = DefaultEventType
	}

	ev := &Event{
		ID:    s.id,
		Type:  eventType,
		Data:  strings.Join(s.dataLines, "\n"),
		Retry: s.retry,
	}

	s.id = ""
	s.eventType = ""
	s.dataLines = nil
	s.retry = NoRetry
	s.hasFields = false

	return ev
}
