// Package sse parses Server-Sent Events from a response byte stream.
// It is designed for consuming event streams proxied through the OAGW
// gateway, where bytes arrive at arbitrary chunk boundaries not aligned
// to logical lines.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

// DefaultEventType is the event type assumed when the "event:" field is
// absent from a record, per the SSE spec.
const DefaultEventType = "message"

// NoRetry is the Retry value of an event whose record carried no parseable
// "retry:" field.
const NoRetry = -1

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// ID is the last event ID from the "id:" field, if present.
	ID string

	// Type is the SSE event type from the "event:" field.
	// Defaults to DefaultEventType when the field is absent.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// Retry is the reconnection interval in milliseconds from the "retry:"
	// field, or NoRetry when the field is absent or not a valid integer.
	Retry int
}
