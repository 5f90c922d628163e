package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrSendFailed wraps every transport failure.
var ErrSendFailed = errors.New("send failed")

// Sender delivers one reminder.
type Sender interface {
	Send(ctx context.Context, r Reminder) error
}

// LogSender writes reminders to the log instead of delivering them. It is
// the default for development.
type LogSender struct {
	logger    *slog.Logger
	manageURL string
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger, manageURL string) *LogSender {
	return &LogSender{
		logger:    logger.With("component", "notify.log_sender"),
		manageURL: manageURL,
	}
}

// Send renders r and logs it.
func (s *LogSender) Send(ctx context.Context, r Reminder) error {
	msg, err := Render(r, s.manageURL)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "reminder",
		"to", r.Email,
		"subject", msg.Subject,
		"day", r.Day.Format(time.DateOnly),
		"items", len(r.Items),
		"total", r.Total.StringFixed(2),
	)
	return nil
}
