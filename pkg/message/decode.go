package message

import (
	"encoding/json"
	"fmt"
)

// rawEnvelope is the subset of the relay's envelope shape the decoder relies
// on. The branch payloads stay raw so that key presence, even with a null
// value, selects the branch before its content is validated.
type rawEnvelope struct {
	Envelope struct {
		Source      *string         `json:"source"`
		Timestamp   *int64          `json:"timestamp"`
		SyncMessage json.RawMessage `json:"syncMessage"`
		DataMessage json.RawMessage `json:"dataMessage"`
	} `json:"envelope"`
}

// rawContent is a branch payload: the message text plus the best-effort
// fields. Everything stays raw so a malformed sub-field degrades to its
// empty value instead of failing the whole message.
type rawContent struct {
	Message     json.RawMessage `json:"message"`
	GroupInfo   json.RawMessage `json:"groupInfo"`
	Reaction    json.RawMessage `json:"reaction"`
	Mentions    json.RawMessage `json:"mentions"`
	Attachments json.RawMessage `json:"attachments"`
}

// Parse decodes one raw envelope into a Message.
//
// Source, timestamp and the matched branch's text are required; their
// absence fails the decode. Group, reaction, mentions and attachments are
// best-effort and degrade to empty values. This asymmetry is the decoding
// contract: a message is useless without sender, time and text, and fully
// usable without the rest.
//
// Decoding is deterministic and side-effect free: the same input yields
// value-equal Messages.
func Parse(raw []byte) (*Message, error) {
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Envelope.Source == nil || env.Envelope.Timestamp == nil {
		return nil, fmt.Errorf("%w: missing envelope.source or envelope.timestamp", ErrMalformedEnvelope)
	}

	var (
		kind    Kind
		content rawContent
	)
	switch {
	case env.Envelope.SyncMessage != nil:
		kind = KindSyncMessage
		var sync struct {
			SentMessage json.RawMessage `json:"sentMessage"`
		}
		if err := json.Unmarshal(env.Envelope.SyncMessage, &sync); err != nil || sync.SentMessage == nil {
			return nil, fmt.Errorf("%w: syncMessage without sentMessage", ErrMalformedEnvelope)
		}
		if err := json.Unmarshal(sync.SentMessage, &content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}

	case env.Envelope.DataMessage != nil:
		kind = KindDataMessage
		if err := json.Unmarshal(env.Envelope.DataMessage, &content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
		}

	default:
		return nil, fmt.Errorf("%w: want syncMessage or dataMessage", ErrUnknownEnvelope)
	}

	text, err := textOf(content.Message)
	if err != nil {
		return nil, err
	}

	return &Message{
		Source:      *env.Envelope.Source,
		Timestamp:   *env.Envelope.Timestamp,
		Kind:        kind,
		Text:        text,
		Group:       groupOf(content.GroupInfo),
		Reaction:    reactionOf(content.Reaction),
		Mentions:    mentionsOf(content.Mentions),
		Attachments: attachmentsOf(content.Attachments),
		Raw:         append(json.RawMessage(nil), raw...),
	}, nil
}

// textOf extracts the branch's message text. A missing key is a decode
// failure; an explicit null is an empty body.
func textOf(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", fmt.Errorf("%w: missing message text", ErrMalformedEnvelope)
	}
	if string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	return text, nil
}

// groupOf reads groupInfo.groupId. Absent or malformed → empty.
func groupOf(raw json.RawMessage) string {
	var gi struct {
		GroupID string `json:"groupId"`
	}
	if err := json.Unmarshal(raw, &gi); err != nil {
		return ""
	}
	return gi.GroupID
}

// reactionOf reads reaction.emoji. Absent or malformed → empty.
func reactionOf(raw json.RawMessage) string {
	var r struct {
		Emoji string `json:"emoji"`
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return ""
	}
	return r.Emoji
}

// mentionsOf passes the mentions list through untouched. Absent or
// malformed → empty.
func mentionsOf(raw json.RawMessage) []json.RawMessage {
	var mentions []json.RawMessage
	if err := json.Unmarshal(raw, &mentions); err != nil {
		return nil
	}
	return mentions
}

// attachmentsOf parses each attachment's metadata. An absent or malformed
// list, or any malformed element, degrades to an empty sequence rather than
// a partially decoded message.
func attachmentsOf(raw json.RawMessage) []*InboundAttachment {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	attachments := make([]*InboundAttachment, 0, len(elems))
	for _, elem := range elems {
		att, err := ParseAttachment(elem)
		if err != nil {
			return nil
		}
		attachments = append(attachments, att)
	}
	return attachments
}
