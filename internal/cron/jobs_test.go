package cron

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/klima7/signalbot/internal/config"
	"github.com/klima7/signalbot/pkg/message"
)

type recordingSender struct {
	recipient string
	text      string
	err       error
}

func (s *recordingSender) Send(_ context.Context, recipient, text string, _ []message.OutboundAttachment) error {
	s.recipient = recipient
	s.text = text
	return s.err
}

func TestSendJob(t *testing.T) {
	sender := &recordingSender{}
	job := &SendJob{
		Entry: config.ScheduleEntry{
			Name:      "standup",
			Cron:      "0 9 * * 1-5",
			Recipient: "G1",
			Message:   "standup in 15 minutes",
		},
		Sender: sender,
		Logger: slog.Default(),
	}

	if got := job.Name(); got != "send:standup" {
		t.Errorf("Name() = %q, want send:standup", got)
	}
	if got := job.Schedule(); got != "0 9 * * 1-5" {
		t.Errorf("Schedule() = %q, want the configured expression", got)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if sender.recipient != "G1" || sender.text != "standup in 15 minutes" {
		t.Errorf("sent (%q, %q), want (G1, standup in 15 minutes)", sender.recipient, sender.text)
	}
}

func TestSendJob_PropagatesError(t *testing.T) {
	wantErr := errors.New("relay down")
	job := &SendJob{
		Entry:  config.ScheduleEntry{Name: "x", Cron: "* * * * *", Recipient: "+100", Message: "hi"},
		Sender: &recordingSender{err: wantErr},
		Logger: slog.Default(),
	}

	if err := job.Run(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Run() error = %v, want %v", err, wantErr)
	}
}
