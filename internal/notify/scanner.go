package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
)

const (
	// DefaultWorkers is the number of users processed concurrently.
	DefaultWorkers = 8
	// DefaultReadTimeout bounds each subscription read.
	DefaultReadTimeout = 10 * time.Second
	// DefaultSendTimeout bounds each email send.
	DefaultSendTimeout = 15 * time.Second
)

// UserSource lists every user that may receive reminders.
type UserSource interface {
	ListUsers(ctx context.Context) ([]model.UserPreference, error)
}

// SubscriptionSource lists one user's subscriptions.
type SubscriptionSource interface {
	ListSubscriptionsFor(ctx context.Context, userID string) ([]model.Subscription, error)
}

// Status is the result of scanning one user.
type Status string

const (
	StatusSent       Status = "sent"
	StatusSkipped    Status = "skipped"
	StatusNothingDue Status = "nothing_due"
	StatusFailed     Status = "failed"
)

// Outcome records what happened for one user.
type Outcome struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Status Status `json:"status"`
	// Count is the number of subscriptions due on the reminder day.
	Count int `json:"count"`
	// Invalid is the number of records that could not be scheduled.
	Invalid int    `json:"invalid,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// SentReminder is one delivered reminder.
type SentReminder struct {
	Email string `json:"email"`
	Count int    `json:"count"`
}

// Report summarizes one scan. Sent lists successful deliveries only.
type Report struct {
	Day        string         `json:"day"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sent       []SentReminder `json:"sent"`
	Outcomes   []Outcome      `json:"outcomes"`
	// Partial is set when the scan was cancelled before every user ran.
	Partial bool `json:"partial"`
}

// Counts tallies outcomes by status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// ScannerConfig tunes concurrency and I/O timeouts.
type ScannerConfig struct {
	Workers     int
	ReadTimeout time.Duration
	SendTimeout time.Duration
}

// Scanner emails each eligible user the subscriptions that bill tomorrow.
type Scanner struct {
	users   UserSource
	subs    SubscriptionSource
	sender  Sender
	logger  *slog.Logger
	metrics metrics.Recorder
	cfg     ScannerConfig
}

// NewScanner creates a Scanner. Zero config fields take defaults.
func NewScanner(users UserSource, subs SubscriptionSource, sender Sender, logger *slog.Logger, recorder metrics.Recorder, cfg ScannerConfig) *Scanner {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	return &Scanner{
		users:   users,
		subs:    subs,
		sender:  sender,
		logger:  logger.With("component", "notify.scanner"),
		metrics: recorder,
		cfg:     cfg,
	}
}

// Run scans every user against cal. Only a failure to list users is
// returned as an error; everything else is recorded per user.
func (s *Scanner) Run(ctx context.Context, cal recurrence.Calendar) (*Report, error) {
	start := time.Now()
	report := &Report{
		Day:       recurrence.FormatDate(cal.Tomorrow()),
		StartedAt: start.UTC(),
		Sent:      []SentReminder{},
		Outcomes:  []Outcome{},
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.metrics.IncScanRun(metrics.RunFailed)
		return nil, fmt.Errorf("list users: %w", err)
	}

	s.logger.InfoContext(ctx, "scan started", "users", len(users), "day", report.Day, "workers", s.cfg.Workers)

	// Each worker writes only its own slot.
	outcomes := make([]Outcome, len(users))
	attempted := make([]bool, len(users))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i := range users {
		if ctx.Err() != nil {
			break
		}
		i := i
		attempted[i] = true
		g.Go(func() error {
			outcomes[i] = s.scanUser(ctx, cal, users[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, o := range outcomes {
		if !attempted[i] {
			report.Partial = true
			continue
		}
		s.metrics.IncScanOutcome(string(o.Status))
		report.Outcomes = append(report.Outcomes, o)
		if o.Status == StatusSent {
			report.Sent = append(report.Sent, SentReminder{Email: o.Email, Count: o.Count})
		}
	}

	report.FinishedAt = time.Now().UTC()
	duration := time.Since(start)
	s.metrics.ObserveScanDuration(duration)
	if report.Partial {
		s.metrics.IncScanRun(metrics.RunPartial)
	} else {
		s.metrics.IncScanRun(metrics.RunComplete)
	}

	s.logger.InfoContext(ctx, "scan finished",
		"day", report.Day,
		"sent", len(report.Sent),
		"outcomes", len(report.Outcomes),
		"partial", report.Partial,
		"duration_ms", duration.Milliseconds(),
	)

	return report, nil
}

func (s *Scanner) scanUser(ctx context.Context, cal recurrence.Calendar, u model.UserPreference) Outcome {
	out := Outcome{UserID: u.UserID, Email: u.Email}

	if !u.NotificationsOn() {
		out.Status, out.Reason = StatusSkipped, "notifications disabled"
		return out
	}
	if !u.Notifiable() {
		out.Status, out.Reason = StatusSkipped, "no email"
		return out
	}

	readCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	subs, err := s.subs.ListSubscriptionsFor(readCtx, u.UserID)
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "load subscriptions failed", "user_id", u.UserID, "error", err)
		out.Status, out.Reason = StatusFailed, "load subscriptions: "+err.Error()
		return out
	}

	var items []ReminderItem
	for i := range subs {
		sub := &subs[i]
		occ, err := cal.Next(sub)
		if err != nil {
			s.logger.WarnContext(ctx, "skipping subscription",
				"user_id", u.UserID,
				"subscription_id", sub.ID,
				"error", err,
			)
			s.metrics.IncSkippedRecord(recurrence.ErrorKind(err))
			out.Invalid++
			continue
		}
		if cal.DueTomorrow(occ) {
			items = append(items, ReminderItem{Name: sub.Name, Price: clampPrice(sub)})
		}
	}

	if len(items) == 0 {
		out.Status = StatusNothingDue
		return out
	}
	out.Count = len(items)

	reminder := NewReminder(u.Email, u.DisplayName, cal.Tomorrow(), items)

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	err = s.sender.Send(sendCtx, reminder)
	cancel()
	if err != nil {
		s.logger.ErrorContext(ctx, "reminder send failed", "user_id", u.UserID, "email", u.Email, "error", err)
		s.metrics.IncEmailSend("failed")
		out.Status, out.Reason = StatusFailed, "send: "+err.Error()
		return out
	}

	s.metrics.IncEmailSend("success")
	out.Status = StatusSent
	return out
}

// clampPrice treats negative prices as free, matching the monthly total.
func clampPrice(sub *model.Subscription) decimal.Decimal {
	if p := sub.BillingPrice(); p.IsPositive() {
		return p
	}
	return decimal.Zero
}
