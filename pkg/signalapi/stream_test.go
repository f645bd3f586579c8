package signalapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/klima7/signalbot/pkg/message"
)

// streamServer runs a websocket endpoint that sends each frame in order and
// then closes the connection.
func streamServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/receive/+4912345" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		for _, frame := range frames {
			if err := conn.Write(r.Context(), websocket.MessageText, []byte(frame)); err != nil {
				return
			}
		}
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}))
}

func TestOpenStream_YieldsFramesVerbatim(t *testing.T) {
	srv := streamServer(t, "frame-one", "frame-two")
	defer srv.Close()

	client := NewClient(service(t, srv), "+4912345")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.OpenStream(ctx)
	if err != nil {
		t.Fatalf("OpenStream() error: %v", err)
	}
	defer func() { _ = stream.Close() }()

	for i, want := range []string{"frame-one", "frame-two"} {
		got, err := stream.Next(ctx)
		if err != nil {
			t.Fatalf("Next() #%d error: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("Next() #%d = %q, want %q", i, got, want)
		}
	}

	// The server closed the connection; the stream is over.
	if _, err := stream.Next(ctx); !errors.Is(err, ErrReceive) {
		t.Errorf("Next() after close error = %v, want ErrReceive", err)
	}
}

func TestOpenStream_ConnectFault(t *testing.T) {
	srv := streamServer(t)
	addr := service(t, srv)
	srv.Close() // nothing listens anymore

	client := NewClient(addr, "+4912345")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := client.OpenStream(ctx); !errors.Is(err, ErrReceive) {
		t.Errorf("OpenStream() error = %v, want ErrReceive", err)
	}
}

func TestMessages_DecodesEnvelopes(t *testing.T) {
	srv := streamServer(t,
		`{"envelope":{"source":"+100","timestamp":111,"dataMessage":{"message":"hi","groupInfo":{"groupId":"G1"}}}}`,
	)
	defer srv.Close()

	client := NewClient(service(t, srv), "+4912345")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Messages(ctx)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	defer func() { _ = stream.Close() }()

	msg, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if msg.Text != "hi" || msg.Recipient() != "G1" || msg.Kind != message.KindDataMessage {
		t.Errorf("decoded = %+v, want text hi addressed to G1", msg)
	}
}

func TestMessages_DefaultPolicyFailsOnBadEnvelope(t *testing.T) {
	srv := streamServer(t, `{"this is": "not an envelope"}`)
	defer srv.Close()

	client := NewClient(service(t, srv), "+4912345")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Messages(ctx)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	defer func() { _ = stream.Close() }()

	if _, err := stream.Next(ctx); !errors.Is(err, message.ErrMalformedEnvelope) {
		t.Errorf("Next() error = %v, want ErrMalformedEnvelope", err)
	}
}

func TestMessages_SkipMalformed(t *testing.T) {
	srv := streamServer(t,
		`not even json`,
		`{"envelope":{"source":"+100","timestamp":111,"somethingElse":{}}}`,
		`{"envelope":{"source":"+100","timestamp":111,"dataMessage":{"message":"survived"}}}`,
	)
	defer srv.Close()

	client := NewClient(service(t, srv), "+4912345")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Messages(ctx, SkipMalformed())
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	defer func() { _ = stream.Close() }()

	msg, err := stream.Next(ctx)
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if msg.Text != "survived" {
		t.Errorf("Text = %q, want %q", msg.Text, "survived")
	}
}

func TestStream_CancelReleasesRead(t *testing.T) {
	// One frame, then the server keeps the connection open. Cancelling the
	// read context must unblock Next.
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		<-blocked
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()
	defer close(blocked)

	client := NewClient(service(t, srv), "+4912345")
	stream, err := client.OpenStream(context.Background())
	if err != nil {
		t.Fatalf("OpenStream() error: %v", err)
	}
	defer func() { _ = stream.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := stream.Next(ctx); !errors.Is(err, ErrReceive) {
		t.Errorf("Next() error = %v, want ErrReceive after cancellation", err)
	}
}
