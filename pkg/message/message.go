// Package message defines the typed data contract between the Signal relay's
// wire format and bot code: decoded messages, the two attachment lifecycles,
// and envelope decoding.
package message

import "encoding/json"

// Kind discriminates which envelope branch produced a Message.
type Kind string

// Supported envelope branches.
const (
	// KindSyncMessage marks a message the bot's own account sent elsewhere,
	// relayed back for consistency.
	KindSyncMessage Kind = "sync_message"
	// KindDataMessage marks a message sent to the bot by another party.
	KindDataMessage Kind = "data_message"
)

// Message is one decoded inbound message. A Message is immutable once
// constructed; only an attachment's payload is populated later, by a fetch.
type Message struct {
	Source      string
	Timestamp   int64
	Kind        Kind
	Text        string
	Attachments []*InboundAttachment
	Group       string // empty when not group-addressed
	Reaction    string // emoji, empty when not a reaction event
	Mentions    []json.RawMessage

	// Raw retains the original envelope for diagnostics. Callers never need
	// it for correct behavior.
	Raw json.RawMessage
}

// Recipient returns the chat the message belongs to: the group ID for
// group-addressed messages, the sender otherwise.
func (m *Message) Recipient() string {
	if m.Group != "" {
		return m.Group
	}
	return m.Source
}

// IsGroup reports whether the message was sent in a group chat.
func (m *Message) IsGroup() bool {
	return m.Group != ""
}

// IsReaction reports whether the envelope was a reaction event.
func (m *Message) IsReaction() bool {
	return m.Reaction != ""
}

// String renders the message body. An empty body renders as "".
func (m *Message) String() string {
	return m.Text
}
