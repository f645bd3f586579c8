package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// OutboundAttachment is a binary payload staged for sending. It is fully
// valid at construction and consumed once by Encode.
type OutboundAttachment struct {
	ContentType string
	Filename    string
	Data        []byte

	encoded string
}

// NewOutboundAttachment creates an attachment from raw bytes. Content type
// and filename are optional; empty values are omitted from the encoded form.
func NewOutboundAttachment(data []byte, contentType, filename string) OutboundAttachment {
	return OutboundAttachment{
		ContentType: contentType,
		Filename:    filename,
		Data:        data,
	}
}

// PreEncodedAttachment wraps a string that is already in the relay's inline
// base64 form. Encode returns it unchanged, so callers may pre-stage
// encoding once and reuse the result.
func PreEncodedAttachment(encoded string) OutboundAttachment {
	return OutboundAttachment{encoded: encoded}
}

// Encode converts the attachment to the relay's inline form:
//
//	data:<content-type>;filename=<name>;base64,<payload>
//
// The data: and filename= segments are each emitted only when the field is
// non-empty, and the base64, marker only when at least one of them was. With
// neither set the result is the bare base64 payload with no prefix.
func (a OutboundAttachment) Encode() string {
	if a.encoded != "" {
		return a.encoded
	}

	var b strings.Builder
	if a.ContentType != "" {
		b.WriteString("data:")
		b.WriteString(a.ContentType)
		b.WriteString(";")
	}
	if a.Filename != "" {
		b.WriteString("filename=")
		b.WriteString(a.Filename)
		b.WriteString(";")
	}
	if a.ContentType != "" || a.Filename != "" {
		b.WriteString("base64,")
	}
	b.WriteString(base64.StdEncoding.EncodeToString(a.Data))
	return b.String()
}

// InboundAttachment is attachment metadata received with a message. The
// payload itself stays on the relay, referenced by ID, until fetched.
type InboundAttachment struct {
	ContentType     string
	Filename        string
	ID              string
	Size            int64
	Width           int
	Height          int
	Caption         string
	UploadTimestamp int64

	// Raw retains the attachment metadata as received.
	Raw json.RawMessage

	data    []byte
	fetched bool
}

// rawAttachment mirrors the relay's attachment metadata keys. Missing keys
// leave the corresponding field zero-valued.
type rawAttachment struct {
	ContentType     string `json:"contentType"`
	Filename        string `json:"filename"`
	ID              string `json:"id"`
	Size            int64  `json:"size"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Caption         string `json:"caption"`
	UploadTimestamp int64  `json:"uploadTimestamp"`
}

// ParseAttachment decodes one attachment metadata object. Any subset of the
// keys may be absent; a mapping that is not an object at all is an error,
// left to the envelope decoder to handle.
func ParseAttachment(raw json.RawMessage) (*InboundAttachment, error) {
	var meta rawAttachment
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("message: parse attachment: %w", err)
	}
	return &InboundAttachment{
		ContentType:     meta.ContentType,
		Filename:        meta.Filename,
		ID:              meta.ID,
		Size:            meta.Size,
		Width:           meta.Width,
		Height:          meta.Height,
		Caption:         meta.Caption,
		UploadTimestamp: meta.UploadTimestamp,
		Raw:             append(json.RawMessage(nil), raw...),
	}, nil
}

// Data returns the fetched payload. It fails with ErrAttachmentNotFetched
// until the payload has been fetched from the relay.
func (a *InboundAttachment) Data() ([]byte, error) {
	if !a.fetched {
		return nil, fmt.Errorf("%w (id %q)", ErrAttachmentNotFetched, a.ID)
	}
	return a.data, nil
}

// SetData stores the fetched payload. The transport calls this exactly once
// per attachment after a successful fetch.
func (a *InboundAttachment) SetData(data []byte) {
	a.data = data
	a.fetched = true
}

// Fetched reports whether the payload has been fetched.
func (a *InboundAttachment) Fetched() bool {
	return a.fetched
}

// extByContentType is a fixed lookup used by ResolvedFilename. A local table
// keeps the result deterministic across platforms, unlike the system mime
// registry.
var extByContentType = map[string]string{
	"image/jpeg":          ".jpg",
	"image/png":           ".png",
	"image/gif":           ".gif",
	"image/webp":          ".webp",
	"audio/aac":           ".aac",
	"audio/mpeg":          ".mp3",
	"audio/ogg":           ".ogg",
	"video/mp4":           ".mp4",
	"application/pdf":     ".pdf",
	"text/plain":          ".txt",
	"text/x-signal-plain": ".txt",
}

// ResolvedFilename returns the stored filename, or def plus an extension
// derived from the content type. An unknown content type yields def with no
// extension.
func (a *InboundAttachment) ResolvedFilename(def string) string {
	if a.Filename != "" {
		return a.Filename
	}
	return def + extByContentType[a.ContentType]
}
