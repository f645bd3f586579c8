package bot

import (
	"context"

	"github.com/klima7/signalbot/pkg/message"
)

// Context carries one inbound message together with reply helpers that
// target its conversation, whether a direct chat or a group.
type Context struct {
	bot     *Bot
	Message *message.Message
}

// Reply sends text back to the message's conversation.
func (c *Context) Reply(ctx context.Context, text string, attachments ...message.OutboundAttachment) error {
	return c.bot.client.Send(ctx, c.Message.Recipient(), text, attachments)
}

// React attaches emoji to the message.
func (c *Context) React(ctx context.Context, emoji string) error {
	return c.bot.client.React(ctx, c.Message.Recipient(), emoji, c.Message.Source, c.Message.Timestamp)
}

// StartTyping shows the typing indicator in the message's conversation.
func (c *Context) StartTyping(ctx context.Context) error {
	return c.bot.client.StartTyping(ctx, c.Message.Recipient())
}

// StopTyping hides the typing indicator.
func (c *Context) StopTyping(ctx context.Context) error {
	return c.bot.client.StopTyping(ctx, c.Message.Recipient())
}

// FetchAttachment downloads att's payload from the relay, making its Data
// available.
func (c *Context) FetchAttachment(ctx context.Context, att *message.InboundAttachment) error {
	return c.bot.client.FetchAttachment(ctx, att)
}
