package message

import "errors"

// Sentinel errors for envelope decoding and attachment access.
var (
	// ErrMalformedEnvelope indicates the envelope text could not be parsed,
	// or a required field (source, timestamp, branch text) is missing.
	ErrMalformedEnvelope = errors.New("message: malformed envelope")

	// ErrUnknownEnvelope indicates the envelope carries neither a
	// syncMessage nor a dataMessage branch.
	ErrUnknownEnvelope = errors.New("message: unrecognized envelope shape")

	// ErrAttachmentNotFetched indicates an inbound attachment's payload was
	// read before it was fetched from the relay.
	ErrAttachmentNotFetched = errors.New("message: attachment data not fetched")
)
