// Package signalapi is a thin client for the signal-cli-rest-api relay.
//
// It covers the two sides of the wire boundary:
//
//   - Ingestion: a streaming websocket connection yielding raw envelopes
//     (OpenStream), optionally coupled to envelope decoding (Messages).
//   - Egress: send, react, typing-indicator and attachment-fetch calls,
//     each an independent short-lived HTTP exchange.
//
// Every operation wraps transport faults (connection errors, non-2xx
// statuses) in its own sentinel error; invalid call arguments surface as
// plain errors so programming mistakes are never mistaken for network
// trouble. The client never retries and never reconnects; both are the
// caller's decision.
//
// The relay API is that of bbernhard/signal-cli-rest-api; the client talks
// to one instance on behalf of one account, both fixed at construction.
package signalapi
