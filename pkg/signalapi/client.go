package signalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/klima7/signalbot/pkg/message"
)

const (
	defaultTimeout = 60 * time.Second

	// maxResponseBytes bounds reads of relay responses. Attachments come
	// through this path too, so the limit matches the relay's own 100 MiB
	// attachment ceiling.
	maxResponseBytes = 100 << 20
)

// Client talks to one signal-cli-rest-api instance on behalf of one account.
// Both are fixed at construction. The zero value is not usable; use
// NewClient.
//
// A Client is safe for concurrent use: every egress call is an independent
// stateless exchange, and the streaming connection lives in the Stream it
// returns, not in the Client.
type Client struct {
	service string // host:port of the relay
	number  string // the account the endpoints are scoped to
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call HTTP timeout. The default is 60 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics attaches Prometheus instruments to the client.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to share a
// connection pool. WithTimeout applied earlier is discarded.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the relay at service (host:port), scoped to
// the account identified by number.
func NewClient(service, number string, opts ...Option) *Client {
	c := &Client{
		service: service,
		number:  number,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
		tracer:  otel.Tracer("signalapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Number returns the account the client acts for.
func (c *Client) Number() string {
	return c.number
}

func (c *Client) sendURL() string {
	return fmt.Sprintf("http://%s/v2/send", c.service)
}

func (c *Client) reactionsURL() string {
	return fmt.Sprintf("http://%s/v1/reactions/%s", c.service, c.number)
}

func (c *Client) typingURL() string {
	return fmt.Sprintf("http://%s/v1/typing-indicator/%s", c.service, c.number)
}

func (c *Client) attachmentURL(id string) string {
	return fmt.Sprintf("http://%s/v1/attachments/%s", c.service, url.PathEscape(id))
}

func (c *Client) receiveURL() string {
	return fmt.Sprintf("ws://%s/v1/receive/%s", c.service, c.number)
}

// call performs one JSON exchange against the relay: exactly one request, no
// retry. Transport faults (connection errors, non-2xx statuses) come back
// wrapped in opErr; marshal and request-construction failures are
// programming errors and are returned as themselves.
func (c *Client) call(ctx context.Context, opErr error, op, method, callURL string, payload any) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "signalapi."+op,
		trace.WithAttributes(attribute.String("signal.service", c.service)),
	)
	defer span.End()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("signalapi: marshal %s payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, callURL, body)
	if err != nil {
		return nil, fmt.Errorf("signalapi: create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.count(op, "error")
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", opErr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.count(op, "error")
		span.RecordError(err)
		return nil, fmt.Errorf("%w: read response: %w", opErr, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.count(op, "error")
		return nil, fmt.Errorf("%w: %w", opErr, &StatusError{Op: op, Code: resp.StatusCode})
	}

	c.count(op, "ok")
	return data, nil
}

// sendRequest is the body for POST /v2/send.
type sendRequest struct {
	Base64Attachments []string `json:"base64_attachments"`
	Message           string   `json:"message"`
	Number            string   `json:"number"`
	Recipients        []string `json:"recipients"`
}

// Send delivers text and attachments to a single recipient. Attachments are
// encoded inline into the request body. A fault leaves no partial state: the
// relay either accepted the whole message or nothing.
func (c *Client) Send(ctx context.Context, recipient, text string, attachments []message.OutboundAttachment) error {
	encoded := make([]string, len(attachments))
	for i, att := range attachments {
		encoded[i] = att.Encode()
	}
	_, err := c.call(ctx, ErrSend, "send", http.MethodPost, c.sendURL(), sendRequest{
		Base64Attachments: encoded,
		Message:           text,
		Number:            c.number,
		Recipients:        []string{recipient},
	})
	return err
}

// reactionRequest is the body for POST /v1/reactions/{number}.
type reactionRequest struct {
	Recipient    string `json:"recipient"`
	Reaction     string `json:"reaction"`
	TargetAuthor string `json:"target_author"`
	Timestamp    int64  `json:"timestamp"`
}

// React puts an emoji reaction on the message targetAuthor sent at
// targetTimestamp.
func (c *Client) React(ctx context.Context, recipient, emoji, targetAuthor string, targetTimestamp int64) error {
	_, err := c.call(ctx, ErrReaction, "react", http.MethodPost, c.reactionsURL(), reactionRequest{
		Recipient:    recipient,
		Reaction:     emoji,
		TargetAuthor: targetAuthor,
		Timestamp:    targetTimestamp,
	})
	return err
}

// typingRequest is the body for the typing-indicator endpoint.
type typingRequest struct {
	Recipient string `json:"recipient"`
}

// StartTyping shows a typing indicator to the recipient.
func (c *Client) StartTyping(ctx context.Context, recipient string) error {
	_, err := c.call(ctx, ErrStartTyping, "start_typing", http.MethodPut, c.typingURL(), typingRequest{Recipient: recipient})
	return err
}

// StopTyping hides the typing indicator again.
func (c *Client) StopTyping(ctx context.Context, recipient string) error {
	_, err := c.call(ctx, ErrStopTyping, "stop_typing", http.MethodDelete, c.typingURL(), typingRequest{Recipient: recipient})
	return err
}

// FetchAttachment downloads an attachment's payload by its remote ID and
// stores it on the attachment. This is the only call that mutates a
// previously returned value; do not fetch the same attachment concurrently.
// Fetching twice wastes a round trip but is harmless.
func (c *Client) FetchAttachment(ctx context.Context, att *message.InboundAttachment) error {
	if att == nil {
		return errors.New("signalapi: nil attachment")
	}
	if att.ID == "" {
		return errors.New("signalapi: attachment has no remote id")
	}
	data, err := c.call(ctx, ErrFetchAttachment, "fetch_attachment", http.MethodGet, c.attachmentURL(att.ID), nil)
	if err != nil {
		return err
	}
	att.SetData(data)
	return nil
}

func (c *Client) count(op, outcome string) {
	if c.metrics != nil {
		c.metrics.Ops.WithLabelValues(op, outcome).Inc()
	}
}

func (c *Client) countFrame() {
	if c.metrics != nil {
		c.metrics.Frames.Inc()
	}
}

func (c *Client) countDecodeFailure() {
	if c.metrics != nil {
		c.metrics.DecodeFailures.Inc()
	}
}
