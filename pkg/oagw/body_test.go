package oagw_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oagwlabs/oagw-go/pkg/oagw"
)

// trackedReader wraps a reader and records whether Close was called.
type trackedReader struct {
	io.Reader
	closed atomic.Bool
}

func newTrackedReader(s string) *trackedReader {
	return &trackedReader{Reader: strings.NewReader(s)}
}

func (r *trackedReader) Close() error {
	r.closed.Store(true)
	return nil
}

// newBrokenReader yields prefix, then fails with err.
func newBrokenReader(prefix string, err error) io.ReadCloser {
	return io.NopCloser(io.MultiReader(strings.NewReader(prefix), &errReader{err: err}))
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

var _ = Describe("Body", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("buffering", func() {
		It("drains a live source once and caches the bytes", func() {
			src := newTrackedReader("hello world")
			body := oagw.NewStreamBody(src)

			first, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(first)).To(Equal("hello world"))
			Expect(src.closed.Load()).To(BeTrue())

			second, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(second)).To(Equal("hello world"))
		})

		It("serves repeated Text and JSON calls from the cache", func() {
			body := oagw.NewStreamBody(newTrackedReader(`{"ok":true}`))

			text, err := body.Text(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"ok":true}`))

			var decoded struct {
				OK bool `json:"ok"`
			}
			Expect(body.JSON(ctx, &decoded)).To(Succeed())
			Expect(decoded.OK).To(BeTrue())
		})

		It("works on a body constructed from a buffer", func() {
			body := oagw.NewBufferedBody([]byte("already here"))

			data, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("already here"))
		})

		It("refuses the raw stream after buffering", func() {
			body := oagw.NewStreamBody(newTrackedReader("data"))

			_, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = body.Stream()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
			_, err = body.Events()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})

		It("propagates a mid-read transport failure and spends the body", func() {
			cause := errors.New("connection reset")
			body := oagw.NewStreamBody(newBrokenReader("partial", cause))

			_, err := body.Bytes(ctx)
			Expect(err).To(MatchError(cause))

			_, err = body.Bytes(ctx)
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})

		It("honors a canceled context while draining", func() {
			canceled, cancel := context.WithCancel(context.Background())
			cancel()

			body := oagw.NewStreamBody(newTrackedReader("data"))
			_, err := body.Bytes(canceled)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("decoding", func() {
		It("rejects invalid UTF-8 as text but keeps the bytes available", func() {
			raw := []byte{0xff, 0xfe, 0xfd}
			body := oagw.NewBufferedBody(raw)

			_, err := body.Text(ctx)
			var decodeErr *oagw.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Mode).To(Equal("text"))

			data, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(raw))
		})

		It("reports malformed JSON with the failing mode", func() {
			body := oagw.NewBufferedBody([]byte("not json"))

			var v map[string]any
			err := body.JSON(ctx, &v)
			var decodeErr *oagw.DecodeError
			Expect(errors.As(err, &decodeErr)).To(BeTrue())
			Expect(decodeErr.Mode).To(Equal("json"))
			Expect(decodeErr.Unwrap()).To(HaveOccurred())
		})
	})

	Describe("taking the raw stream", func() {
		It("transfers the source exactly once", func() {
			src := newTrackedReader("streamed")
			body := oagw.NewStreamBody(src)

			rc, err := body.Stream()
			Expect(err).NotTo(HaveOccurred())

			data, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("streamed"))
			Expect(rc.Close()).To(Succeed())

			_, err = body.Stream()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
			_, err = body.Bytes(ctx)
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
			_, err = body.Events()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})

		It("yields a one-shot reader over a construction buffer", func() {
			body := oagw.NewBufferedBody([]byte("buffered"))

			rc, err := body.Stream()
			Expect(err).NotTo(HaveOccurred())

			data, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("buffered"))

			_, err = body.Stream()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})
	})

	Describe("taking the event stream", func() {
		It("parses the source as SSE and is exclusive", func() {
			body := oagw.NewStreamBody(newTrackedReader("data: hello\n\n"))

			stream, err := body.Events()
			Expect(err).NotTo(HaveOccurred())
			defer stream.Close()

			ev, err := stream.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("hello"))

			_, err = body.Events()
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
			_, err = body.Bytes(ctx)
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})
	})

	Describe("closing", func() {
		It("releases an unconsumed source and spends the body", func() {
			src := newTrackedReader("data")
			body := oagw.NewStreamBody(src)

			Expect(body.Close()).To(Succeed())
			Expect(src.closed.Load()).To(BeTrue())

			_, err := body.Bytes(ctx)
			Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
		})

		It("is idempotent", func() {
			body := oagw.NewStreamBody(newTrackedReader("data"))
			Expect(body.Close()).To(Succeed())
			Expect(body.Close()).To(Succeed())
		})

		It("does not disturb a stream already handed out", func() {
			src := newTrackedReader("data")
			body := oagw.NewStreamBody(src)

			rc, err := body.Stream()
			Expect(err).NotTo(HaveOccurred())

			Expect(body.Close()).To(Succeed())
			Expect(src.closed.Load()).To(BeFalse())

			data, err := io.ReadAll(rc)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("data"))
		})

		It("keeps cached bytes readable after Close", func() {
			body := oagw.NewStreamBody(newTrackedReader("cached"))

			_, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(body.Close()).To(Succeed())

			data, err := body.Bytes(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("cached"))
		})
	})
})
