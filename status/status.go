// Package status defines the taxonomy of result codes propagated across
// the receiver pipeline, from packet admission up to control tasks.
package status

import "fmt"

// Code is a receiver-wide status taxonomy. It implements error so call
// sites that only want a plain Go error can use it directly, while call
// sites that need to branch on the taxonomy can compare against the
// exported constants.
type Code int

const (
	// OK indicates success.
	OK Code = iota
	// BadState means the object is not yet initialized, already closed,
	// or in a Broken state.
	BadState
	// NoMem means an allocation failed; the caller may retry or fail
	// upstream.
	NoMem
	// NoRoute means the session router could not satisfy an add/link
	// due to a conflict.
	NoRoute
	// BadPacket means parsing or validation failed. Always absorbed
	// locally (logged + dropped), never surfaced as a caller-visible
	// failure.
	BadPacket
	// Terminated means a session watchdog decided to stop the session.
	// Surfaces as session removal, not as a failure to the caller.
	Terminated
	// Unknown is propagated from a downstream writer whose own failure
	// mode isn't represented in this taxonomy.
	Unknown
)

var names = map[Code]string{
	OK:         "ok",
	BadState:   "bad_state",
	NoMem:      "no_mem",
	NoRoute:    "no_route",
	BadPacket:  "bad_packet",
	Terminated: "terminated",
	Unknown:    "unknown",
}

func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(c))
}

// Error implements the error interface. OK.Error() still returns a
// string (Go has no "absent error" sentinel for a value type); callers
// that care about success should compare against OK directly rather than
// checking err == nil.
func (c Code) Error() string {
	return c.String()
}

// IsError reports whether c represents anything other than OK.
func (c Code) IsError() bool {
	return c != OK
}
