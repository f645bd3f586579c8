package signalapi

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
)

// maxFrameBytes bounds one inbound frame. Envelopes carry metadata only
// (attachment payloads are fetched separately), so frames stay small.
const maxFrameBytes = 10 << 20

// Stream is one receive session against the relay. It yields inbound frames
// verbatim, unparsed, and is not restartable: once the connection ends,
// every further Next fails and a new session must be opened with OpenStream.
type Stream struct {
	conn   *websocket.Conn
	client *Client
}

// OpenStream dials ws://{service}/v1/receive/{number} and returns the raw
// frame stream. The relay does not expect client-initiated pings, so none
// are sent. Cancelling the dial context aborts the connect; cancelling a
// Next context releases the read.
func (c *Client) OpenStream(ctx context.Context) (*Stream, error) {
	conn, _, err := websocket.Dial(ctx, c.receiveURL(), nil)
	if err != nil {
		c.count("receive", "error")
		return nil, fmt.Errorf("%w: %w", ErrReceive, err)
	}
	conn.SetReadLimit(maxFrameBytes)
	c.count("receive", "ok")
	c.logger.Debug("receive stream opened", "service", c.service)
	return &Stream{conn: conn, client: c}, nil
}

// Next blocks until the next frame arrives and returns it unparsed. Any read
// fault, remote close included, ends the stream with ErrReceive.
func (s *Stream) Next(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReceive, err)
	}
	s.client.countFrame()
	return data, nil
}

// Close releases the underlying connection. Safe to call after a failed
// Next.
func (s *Stream) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}
