package bot

import (
	"context"
	"testing"

	"github.com/klima7/signalbot/pkg/message"
)

func TestTriggered(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact match", "ping", true},
		{"different case", "PiNg", true},
		{"surrounding whitespace", "  ping \n", true},
		{"other word", "pong", false},
		{"substring only", "ping me later", false},
		{"empty text", "", false},
		{"second trigger", "hello", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			h := Triggered(HandlerFunc(func(ctx context.Context, c *Context) error {
				ran = true
				return nil
			}), "ping", "hello")

			c := &Context{Message: &message.Message{Text: tt.text}}
			if err := h.Handle(context.Background(), c); err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if ran != tt.want {
				t.Errorf("Triggered ran = %v for %q, want %v", ran, tt.text, tt.want)
			}
		})
	}
}

func TestTriggeredExact(t *testing.T) {
	ran := false
	h := TriggeredExact(HandlerFunc(func(ctx context.Context, c *Context) error {
		ran = true
		return nil
	}), "Ping")

	c := &Context{Message: &message.Message{Text: "ping"}}
	if err := h.Handle(context.Background(), c); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if ran {
		t.Error("case-sensitive trigger matched a different case")
	}

	c.Message.Text = "Ping"
	if err := h.Handle(context.Background(), c); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !ran {
		t.Error("exact trigger did not match identical text")
	}
}
