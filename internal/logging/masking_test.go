package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare number", "+4915551234567", "+491...67"},
		{"number in text", "sending to +4915551234567 now", "sending to +491...67 now"},
		{"two numbers", "+4915551234567 and +15551234", "+491...67 and +155...34"},
		{"short number untouched", "+12345", "+12345"},
		{"no number", "nothing to hide", "nothing to hide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Mask(tt.in); got != tt.want {
				t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMaskingHandler_MasksMessage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewMaskingHandler(inner))

	logger.Info("message from +4915551234567")

	output := buf.String()
	if strings.Contains(output, "+4915551234567") {
		t.Errorf("full number found in log output: %s", output)
	}
	if !strings.Contains(output, "+491...67") {
		t.Errorf("expected masked number in output: %s", output)
	}
}

func TestMaskingHandler_MasksAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewMaskingHandler(inner))

	logger.Info("delivered", "recipient", "+4915551234567", "safe", "visible")

	output := buf.String()
	if strings.Contains(output, "+4915551234567") {
		t.Errorf("full number found in attributes: %s", output)
	}
	if !strings.Contains(output, "visible") {
		t.Errorf("safe value missing from output: %s", output)
	}
}

func TestMaskingHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewMaskingHandler(inner)).With("account", "+4915551234567")

	logger.Info("starting")

	output := buf.String()
	if strings.Contains(output, "+4915551234567") {
		t.Errorf("full number found in persistent attrs: %s", output)
	}
}

func TestMaskingHandler_MasksErrorValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewMaskingHandler(inner))

	logger.Error("send failed", "error", errors.New("relay rejected +4915551234567"))

	output := buf.String()
	if strings.Contains(output, "+4915551234567") {
		t.Errorf("full number found in error value: %s", output)
	}
}
