package bot

import (
	"context"
	"strings"
)

// Handler processes one inbound message.
type Handler interface {
	Handle(ctx context.Context, c *Context) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, c *Context) error

func (f HandlerFunc) Handle(ctx context.Context, c *Context) error {
	return f(ctx, c)
}

// Triggered wraps h so it only runs when the message text, after trimming
// surrounding whitespace, equals one of the trigger words. Matching ignores
// case; use TriggeredExact when case matters.
func Triggered(h Handler, triggers ...string) Handler {
	lowered := make([]string, len(triggers))
	for i, t := range triggers {
		lowered[i] = strings.ToLower(t)
	}
	return HandlerFunc(func(ctx context.Context, c *Context) error {
		text := strings.ToLower(strings.TrimSpace(c.Message.Text))
		for _, t := range lowered {
			if text == t {
				return h.Handle(ctx, c)
			}
		}
		return nil
	})
}

// TriggeredExact is Triggered with case-sensitive matching.
func TriggeredExact(h Handler, triggers ...string) Handler {
	return HandlerFunc(func(ctx context.Context, c *Context) error {
		text := strings.TrimSpace(c.Message.Text)
		for _, t := range triggers {
			if text == t {
				return h.Handle(ctx, c)
			}
		}
		return nil
	})
}
