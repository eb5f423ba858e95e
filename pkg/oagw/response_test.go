package oagw_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/oagwlabs/oagw-go/pkg/bridge"
	"github.com/oagwlabs/oagw-go/pkg/oagw"
)

var _ = Describe("ClassifyErrorSource", func() {
	headerWith := func(value string) http.Header {
		h := make(http.Header)
		h.Set(oagw.ErrorSourceHeader, value)
		return h
	}

	DescribeTable("maps the header value to a source",
		func(value string, want oagw.ErrorSource) {
			Expect(oagw.ClassifyErrorSource(headerWith(value))).To(Equal(want))
		},
		Entry("gateway", "gateway", oagw.ErrorSourceGateway),
		Entry("gateway uppercased", "GATEWAY", oagw.ErrorSourceGateway),
		Entry("upstream", "upstream", oagw.ErrorSourceUpstream),
		Entry("upstream mixed case", "Upstream", oagw.ErrorSourceUpstream),
		Entry("unrecognized marker", "proxy", oagw.ErrorSourceUnknown),
		Entry("empty value", "", oagw.ErrorSourceUnknown),
	)

	It("returns Unknown when the header is absent", func() {
		Expect(oagw.ClassifyErrorSource(make(http.Header))).To(Equal(oagw.ErrorSourceUnknown))
	})

	It("stringifies each source", func() {
		Expect(oagw.ErrorSourceGateway.String()).To(Equal("gateway"))
		Expect(oagw.ErrorSourceUpstream.String()).To(Equal("upstream"))
		Expect(oagw.ErrorSourceUnknown.String()).To(Equal("unknown"))
	})
})

var _ = Describe("Response", func() {
	var (
		ctx context.Context
		br  *bridge.Bridge
	)

	BeforeEach(func() {
		ctx = context.Background()
		br = bridge.New()
		DeferCleanup(br.Close)
	})

	It("exposes status, headers, and the classified error source", func() {
		headers := make(http.Header)
		headers.Set(oagw.ErrorSourceHeader, "upstream")
		headers.Set("Content-Type", "application/json")

		resp := oagw.NewBufferedResponse(http.StatusInternalServerError, headers, []byte(`{"error":"boom"}`), br)

		Expect(resp.Status()).To(Equal(http.StatusInternalServerError))
		Expect(resp.Headers().Get("Content-Type")).To(Equal("application/json"))
		Expect(resp.ErrorSource()).To(Equal(oagw.ErrorSourceUpstream))
	})

	It("does not let callers mutate the envelope through Headers", func() {
		headers := make(http.Header)
		headers.Set(oagw.ErrorSourceHeader, "upstream")

		resp := oagw.NewBufferedResponse(http.StatusBadGateway, headers, nil, br)

		got := resp.Headers()
		got.Set(oagw.ErrorSourceHeader, "gateway")
		got.Set("X-Injected", "yes")

		Expect(resp.Headers().Get(oagw.ErrorSourceHeader)).To(Equal("upstream"))
		Expect(resp.Headers().Get("X-Injected")).To(BeEmpty())
		Expect(resp.ErrorSource()).To(Equal(oagw.ErrorSourceUpstream))
	})

	It("consumes the body through the context-taking methods", func() {
		streamed := oagw.NewResponse(http.StatusOK, make(http.Header), newTrackedReader(`{"n":42}`), br)

		var decoded struct {
			N int `json:"n"`
		}
		Expect(streamed.JSON(ctx, &decoded)).To(Succeed())
		Expect(decoded.N).To(Equal(42))

		text, err := streamed.Text(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal(`{"n":42}`))
	})

	Describe("blocking variants", func() {
		It("buffers through the bridge", func() {
			resp := oagw.NewResponse(http.StatusOK, make(http.Header), newTrackedReader("payload"), br)

			data, err := resp.BytesBlocking()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("payload"))

			text, err := resp.TextBlocking()
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("payload"))
		})

		It("decodes JSON through the bridge", func() {
			resp := oagw.NewResponse(http.StatusOK, make(http.Header), newTrackedReader(`{"ok":true}`), br)

			var decoded struct {
				OK bool `json:"ok"`
			}
			Expect(resp.JSONBlocking(&decoded)).To(Succeed())
			Expect(decoded.OK).To(BeTrue())
		})

		It("fails fast when nested inside a bridge operation", func() {
			resp := oagw.NewResponse(http.StatusOK, make(http.Header), newTrackedReader("payload"), br)

			_, err := bridge.Run(br, func(context.Context) ([]byte, error) {
				return resp.BytesBlocking()
			})
			Expect(err).To(MatchError(bridge.ErrNestedBlockingContext))
		})
	})

	It("hands out the event stream once", func() {
		resp := oagw.NewResponse(http.StatusOK, make(http.Header),
			newTrackedReader("id: 7\nevent: ping\ndata: a\ndata: b\n\n"), br)

		stream, err := resp.Events()
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		ev, err := stream.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.ID).To(Equal("7"))
		Expect(ev.Type).To(Equal("ping"))
		Expect(ev.Data).To(Equal("a\nb"))

		_, err = resp.Events()
		Expect(err).To(MatchError(oagw.ErrAlreadyConsumed))
	})

	It("releases the source on Close", func() {
		src := newTrackedReader("unread")
		resp := oagw.NewResponse(http.StatusOK, make(http.Header), src, br)

		Expect(resp.Close()).To(Succeed())
		Expect(src.closed.Load()).To(BeTrue())
	})
})
