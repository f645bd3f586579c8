// Package logging provides a slog handler that masks phone numbers before
// they reach log output. Conversation partners' numbers are personal data;
// masking at the handler keeps every log call site free of that concern.
package logging

import (
	"context"
	"log/slog"
	"regexp"
)

// numberPattern matches E.164 numbers anywhere in a string.
var numberPattern = regexp.MustCompile(`\+[0-9]{5,15}`)

// MaskNumber shortens one E.164 number to its first three and last two
// digits, e.g. +4915551234567 becomes +491...67.
func MaskNumber(number string) string {
	if len(number) < 8 {
		return number
	}
	return number[:4] + "..." + number[len(number)-2:]
}

// Mask replaces every phone number in s with its masked form.
func Mask(s string) string {
	return numberPattern.ReplaceAllStringFunc(s, MaskNumber)
}

// MaskingHandler wraps a slog.Handler and masks phone numbers in the message
// and in all string-valued attributes before passing the record on. Wrapping
// the handler covers every log call regardless of origin.
type MaskingHandler struct {
	inner slog.Handler
}

var _ slog.Handler = (*MaskingHandler)(nil)

// NewMaskingHandler creates a handler that wraps inner.
func NewMaskingHandler(inner slog.Handler) *MaskingHandler {
	return &MaskingHandler{inner: inner}
}

// Enabled delegates to the inner handler.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle masks string values in the record's message and attributes, then
// delegates to the inner handler.
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, Mask(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.maskAttr(a))
		return true
	})

	return h.inner.Handle(ctx, masked)
}

// WithAttrs returns a new handler with pre-masked attributes.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.maskAttr(a)
	}
	return &MaskingHandler{inner: h.inner.WithAttrs(masked)}
}

// WithGroup returns a new handler with the given group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{inner: h.inner.WithGroup(name)}
}

// maskAttr recursively masks string values in an attribute.
func (h *MaskingHandler) maskAttr(a slog.Attr) slog.Attr {
	// Resolve first so LogValuer, error, and fmt.Stringer types are
	// converted to their final representation.
	a.Value = a.Value.Resolve()

	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(Mask(a.Value.String()))
	case slog.KindGroup:
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			masked[i] = h.maskAttr(ga)
		}
		a.Value = slog.GroupValue(masked...)
	case slog.KindAny:
		// After Resolve(), remaining KindAny values (e.g., error types)
		// still carry numbers in their string representation.
		resolved := a.Value.String()
		masked := Mask(resolved)
		if masked != resolved {
			a.Value = slog.StringValue(masked)
		}
	}
	return a
}
