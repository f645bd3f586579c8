package bot

import (
	"context"
	"time"
)

// DefaultTypingRefresh is how often the typing indicator is re-sent while a
// typing loop runs. Signal expires an indicator after roughly fifteen
// seconds, so the refresh must come in under that.
const DefaultTypingRefresh = 10 * time.Second

// Typing launches a goroutine that keeps the typing indicator alive in the
// message's conversation, re-sending it every interval until the returned
// stop function is called or ctx is cancelled. stop also clears the
// indicator. An interval of zero uses DefaultTypingRefresh.
func (c *Context) Typing(ctx context.Context, interval time.Duration) (stop func()) {
	if interval == 0 {
		interval = DefaultTypingRefresh
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		_ = c.StartTyping(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = c.StartTyping(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = c.bot.client.StopTyping(stopCtx, c.Message.Recipient())
	}
}
