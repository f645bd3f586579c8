// Package bot wires the receive stream to command handlers and owns the
// process lifecycle around the relay client: one pump goroutine reads and
// decodes frames into a bounded queue, a bounded worker pool dispatches from
// it, and reconnection between stream sessions happens here, not in the
// transport.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klima7/signalbot/internal/history"
	"github.com/klima7/signalbot/pkg/message"
	"github.com/klima7/signalbot/pkg/signalapi"
)

// Config tunes the receive pump. The zero value gets sensible defaults.
type Config struct {
	// QueueSize bounds the decoded-message queue between stream and
	// workers; a full queue backpressures the receive loop.
	QueueSize int

	// Workers bounds concurrent handler execution.
	Workers int

	// SkipMalformed drops undecodable envelopes instead of restarting the
	// stream session on the first one.
	SkipMalformed bool

	// ReconnectWait is the pause between receive sessions after a stream
	// fault.
	ReconnectWait time.Duration
}

func (c *Config) defaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 5 * time.Second
	}
}

// Bot receives messages from the relay and dispatches them to registered
// handlers. Register handlers before Run.
type Bot struct {
	client  *signalapi.Client
	config  Config
	logger  *slog.Logger
	history *history.Store // optional

	handlers  []Handler
	processed atomic.Int64
}

// New creates a Bot around client. history may be nil.
func New(client *signalapi.Client, cfg Config, logger *slog.Logger, store *history.Store) *Bot {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		client:  client,
		config:  cfg,
		logger:  logger,
		history: store,
	}
}

// Register adds a handler. Handlers run for every decoded message, in
// registration order; use Triggered to restrict one to specific commands.
func (b *Bot) Register(h Handler) {
	b.handlers = append(b.handlers, h)
}

// Handlers returns the number of registered handlers.
func (b *Bot) Handlers() int {
	return len(b.handlers)
}

// Processed returns the number of messages dispatched since start.
func (b *Bot) Processed() int64 {
	return b.processed.Load()
}

// Run receives and dispatches messages until ctx is cancelled. A stream
// itself never restarts; Run opens a fresh session after each fault,
// waiting ReconnectWait in between. Events arriving while disconnected are
// lost; the relay offers no replay.
func (b *Bot) Run(ctx context.Context) error {
	for {
		err := b.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.logger.Error("receive session ended",
			"error", err,
			"retry_in", b.config.ReconnectWait,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.config.ReconnectWait):
		}
	}
}

// session runs one stream session to completion. The bounded queue is the
// backpressure point between connection liveness and handler speed.
func (b *Bot) session(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var opts []signalapi.StreamOption
	if b.config.SkipMalformed {
		opts = append(opts, signalapi.SkipMalformed())
	}

	stream, err := b.client.Messages(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	queue := make(chan *message.Message, b.config.QueueSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(queue)
		for {
			msg, err := stream.Next(ctx)
			if err != nil {
				errCh <- err
				return
			}
			select {
			case queue <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	sem := make(chan struct{}, b.config.Workers)
	for msg := range queue {
		sem <- struct{}{}
		wg.Add(1)
		go func(m *message.Message) {
			defer wg.Done()
			defer func() { <-sem }()
			b.dispatch(ctx, m)
		}(msg)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

// dispatch records the message and runs every handler. A handler error is
// logged and does not affect other handlers or subsequent messages.
func (b *Bot) dispatch(ctx context.Context, msg *message.Message) {
	b.processed.Add(1)

	if b.history != nil {
		if err := b.history.Record(ctx, msg); err != nil {
			b.logger.Warn("failed to record message", "error", err)
		}
	}

	c := &Context{bot: b, Message: msg}
	for _, h := range b.handlers {
		if err := h.Handle(ctx, c); err != nil {
			b.logger.Error("handler failed",
				"recipient", msg.Recipient(),
				"error", err,
			)
		}
	}
}
