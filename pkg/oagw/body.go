package oagw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/oagwlabs/oagw-go/pkg/sse"
)

// bodyState tracks how a Body has been consumed. There is no transition
// back to unconsumed.
type bodyState uint8

const (
	stateUnconsumed bodyState = iota
	stateBuffered
	stateStreamTaken
	stateSSETaken

	// stateSpent marks a body whose source is gone without a usable result:
	// buffering failed mid-read, or the body was closed unconsumed.
	stateSpent
)

// Body owns a response's byte source exclusively and enforces the
// single-consumption discipline: the first operation to transition the state
// machine takes ownership of the source, and every later exclusive attempt
// fails with ErrAlreadyConsumed.
//
// Buffering is the one replayable mode: Bytes retains the drained bytes, so
// repeated Bytes/Text/JSON calls keep succeeding against the cache. Handing
// out the raw stream or the event stream transfers the one-shot source and
// is never repeatable.
type Body struct {
	mu    sync.Mutex
	state bodyState
	buf   []byte        // construction buffer, or cache once buffered
	src   io.ReadCloser // live source; nil when constructed from a buffer
}

// NewBufferedBody creates a Body over bytes that have already fully arrived.
func NewBufferedBody(data []byte) *Body {
	return &Body{buf: data}
}

// NewStreamBody creates a Body over a live byte source. The Body takes
// exclusive ownership of src.
func NewStreamBody(src io.ReadCloser) *Body {
	return &Body{src: src}
}

// Bytes drains the entire source and returns it as one contiguous slice.
// The result is cached: repeated calls return the same bytes. ctx is checked
// between chunk reads while draining.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case stateBuffered:
		return b.buf, nil
	case stateStreamTaken, stateSSETaken, stateSpent:
		return nil, ErrAlreadyConsumed
	}

	if b.src == nil {
		b.state = stateBuffered
		return b.buf, nil
	}

	data, err := readAll(ctx, b.src)
	b.src.Close()
	b.src = nil
	if err != nil {
		b.state = stateSpent
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	b.buf = data
	b.state = stateBuffered
	return data, nil
}

// Text buffers the body and decodes it as UTF-8 text.
func (b *Body) Text(ctx context.Context) (string, error) {
	data, err := b.Bytes(ctx)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &DecodeError{Mode: "text", Err: errors.New("body is not valid UTF-8")}
	}
	return string(data), nil
}

// JSON buffers the body and unmarshals it into v.
func (b *Body) JSON(ctx context.Context, v any) error {
	data, err := b.Bytes(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Mode: "json", Err: err}
	}
	return nil
}

// Stream transfers the raw byte source to the caller, who becomes
// responsible for closing it. A body constructed from a buffer yields a
// one-shot reader over those bytes.
//
// Fails with ErrAlreadyConsumed unless the body is still unconsumed.
func (b *Body) Stream() (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateUnconsumed {
		return nil, ErrAlreadyConsumed
	}
	b.state = stateStreamTaken

	return b.takeSource(), nil
}

// Events wraps the byte source in an SSE event stream and transfers it to
// the caller, who becomes responsible for closing it.
//
// Fails with ErrAlreadyConsumed unless the body is still unconsumed.
func (b *Body) Events() (*sse.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != stateUnconsumed {
		return nil, ErrAlreadyConsumed
	}
	b.state = stateSSETaken

	return sse.NewStream(b.takeSource()), nil
}

// Close releases the underlying source if no consumption operation has taken
// it. Closing is idempotent and never disturbs a consumption already granted.
func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.src == nil {
		return nil
	}

	src := b.src
	b.src = nil
	if b.state == stateUnconsumed {
		b.state = stateSpent
	}
	return src.Close()
}

// takeSource hands over the live source, or a reader over the construction
// buffer. Callers must hold b.mu.
func (b *Body) takeSource() io.ReadCloser {
	if b.src == nil {
		return io.NopCloser(bytes.NewReader(b.buf))
	}
	src := b.src
	b.src = nil
	return src
}

// readAll drains r, checking ctx between chunk reads so a canceled context
// interrupts a slow source.
func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}
