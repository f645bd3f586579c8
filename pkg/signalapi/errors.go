package signalapi

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per operation family. Transport faults are wrapped in
// these; invalid call arguments are not.
var (
	// ErrReceive indicates the streaming connection could not be opened, or
	// failed or closed mid-stream.
	ErrReceive = errors.New("signalapi: receive stream")

	// ErrSend indicates a send call failed.
	ErrSend = errors.New("signalapi: send message")

	// ErrReaction indicates a reaction call failed.
	ErrReaction = errors.New("signalapi: send reaction")

	// ErrTyping is the common kind for typing-indicator failures; both
	// ErrStartTyping and ErrStopTyping match it via errors.Is.
	ErrTyping = errors.New("signalapi: typing indicator")

	// ErrFetchAttachment indicates an attachment download failed.
	ErrFetchAttachment = errors.New("signalapi: fetch attachment")
)

// Typing-indicator failures by direction.
var (
	ErrStartTyping = fmt.Errorf("%w: start", ErrTyping)
	ErrStopTyping  = fmt.Errorf("%w: stop", ErrTyping)
)

// StatusError reports a non-2xx response from the relay. It is wrapped
// under the operation's sentinel and reachable via errors.As.
type StatusError struct {
	Op   string
	Code int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("signalapi: %s: unexpected status %d", e.Op, e.Code)
}
