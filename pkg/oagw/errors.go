package oagw

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorSourceHeader is the response header OAGW sets to attribute a failure
// to one side of the proxied call.
const ErrorSourceHeader = "X-OAGW-Error-Source"

// ErrorSource identifies which side of the gateway produced an error
// response: the gateway itself, or the upstream service it proxies to.
type ErrorSource int

const (
	// ErrorSourceUnknown means the header was absent or carried a value this
	// client does not recognize. New marker values introduced by the gateway
	// protocol degrade to Unknown instead of breaking callers.
	ErrorSourceUnknown ErrorSource = iota

	// ErrorSourceGateway means the gateway itself failed the call.
	ErrorSourceGateway

	// ErrorSourceUpstream means the proxied third-party service failed.
	ErrorSourceUpstream
)

func (s ErrorSource) String() string {
	switch s {
	case ErrorSourceGateway:
		return "gateway"
	case ErrorSourceUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// ClassifyErrorSource inspects the X-OAGW-Error-Source header and reports
// where an error response originated. The lookup and the value comparison
// are case-insensitive, and classification never fails.
func ClassifyErrorSource(headers http.Header) ErrorSource {
	switch strings.ToLower(headers.Get(ErrorSourceHeader)) {
	case "gateway":
		return ErrorSourceGateway
	case "upstream":
		return ErrorSourceUpstream
	default:
		return ErrorSourceUnknown
	}
}

// ErrAlreadyConsumed is returned when an exclusive consumption (byte stream
// or event stream) is attempted on a body that has already been consumed in
// any form.
var ErrAlreadyConsumed = errors.New("response body already consumed")

// DecodeError reports that a fully buffered body could not be decoded under
// the requested consumption mode.
type DecodeError struct {
	// Mode is the consumption mode that failed: "text" or "json".
	Mode string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response body as %s: %v", e.Mode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
