package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/klima7/signalbot/internal/config"
	"github.com/klima7/signalbot/pkg/message"
)

// sendTimeout bounds one scheduled delivery independently of the client's
// own timeout, so a hung relay cannot block the job slot for long.
const sendTimeout = 2 * time.Minute

// Sender is the subset of the API client scheduled jobs need. Defined here
// to avoid a dependency on the client package.
type Sender interface {
	Send(ctx context.Context, recipient, text string, attachments []message.OutboundAttachment) error
}

// SendJob delivers a fixed message to a recipient on a cron schedule.
type SendJob struct {
	Entry  config.ScheduleEntry
	Sender Sender
	Logger *slog.Logger
}

// Compile-time interface check.
var _ Job = (*SendJob)(nil)

// Name implements Job.
func (j *SendJob) Name() string {
	return "send:" + j.Entry.Name
}

// Schedule implements Job.
func (j *SendJob) Schedule() string {
	return j.Entry.Cron
}

// Run delivers the message once.
func (j *SendJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := j.Sender.Send(ctx, j.Entry.Recipient, j.Entry.Message, nil); err != nil {
		return err
	}
	j.Logger.Info("cron: scheduled message sent",
		"job", j.Entry.Name,
		"recipient", j.Entry.Recipient,
	)
	return nil
}
