package signalapi

import (
	"context"
	"errors"

	"github.com/klima7/signalbot/pkg/message"
)

// MessageStream couples a raw Stream with envelope decoding, yielding typed
// messages.
//
// By default the first malformed or unrecognized envelope fails the call:
// the feed comes from a single trusted relay, and a shape the decoder cannot
// handle is worth surfacing loudly. SkipMalformed trades that for resilience
// on a noisy feed: per-envelope decode failures are logged, counted and
// skipped, and only stream faults end the sequence.
type MessageStream struct {
	stream        *Stream
	client        *Client
	skipMalformed bool
}

// StreamOption configures message decoding on a stream.
type StreamOption func(*MessageStream)

// SkipMalformed makes the stream drop undecodable envelopes instead of
// failing on the first one.
func SkipMalformed() StreamOption {
	return func(ms *MessageStream) { ms.skipMalformed = true }
}

// Messages opens a receive session and returns the decoded message stream.
// Like the raw stream it is infinite and non-restartable.
func (c *Client) Messages(ctx context.Context, opts ...StreamOption) (*MessageStream, error) {
	stream, err := c.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	ms := &MessageStream{stream: stream, client: c}
	for _, opt := range opts {
		opt(ms)
	}
	return ms, nil
}

// Next returns the next decoded message. Decode failures end the sequence
// unless SkipMalformed was set; stream faults always do.
func (ms *MessageStream) Next(ctx context.Context) (*message.Message, error) {
	for {
		raw, err := ms.stream.Next(ctx)
		if err != nil {
			return nil, err
		}

		msg, err := message.Parse(raw)
		if err != nil {
			ms.client.countDecodeFailure()
			if ms.skipMalformed && (errors.Is(err, message.ErrMalformedEnvelope) || errors.Is(err, message.ErrUnknownEnvelope)) {
				ms.client.logger.Warn("skipping undecodable envelope", "error", err)
				continue
			}
			return nil, err
		}
		return msg, nil
	}
}

// Close releases the underlying connection.
func (ms *MessageStream) Close() error {
	return ms.stream.Close()
}
