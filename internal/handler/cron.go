package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/subtrackr/subtrackr/internal/cache"
	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/notify"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/service"
)

const reportStoreTimeout = 2 * time.Second

// Scanner runs one notification scan.
type Scanner interface {
	Run(ctx context.Context, cal recurrence.Calendar) (*notify.Report, error)
}

// ScanReportStore keeps the most recent scan report. *cache.Cache
// implements it.
type ScanReportStore interface {
	SetLastScan(ctx context.Context, report any) error
	LastScan(ctx context.Context, dst any) error
}

// CronHandler triggers the daily reminder scan. The shared secret is
// checked by middleware before these handlers run.
type CronHandler struct {
	scanner Scanner
	reports ScanReportStore
	clock   service.Clock
	logger  *slog.Logger
}

// NewCronHandler creates a new CronHandler. reports may be nil.
func NewCronHandler(scanner Scanner, reports ScanReportStore, clock service.Clock, logger *slog.Logger) *CronHandler {
	return &CronHandler{
		scanner: scanner,
		reports: reports,
		clock:   clock,
		logger:  logger.With("component", "handler.cron"),
	}
}

// Notify handles GET and POST /api/cron/notify. The request context bounds
// the scan; a cancelled scan still answers with the users it finished.
func (h *CronHandler) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.scanner.Run(ctx, h.clock.Calendar())
	if err != nil {
		h.logger.ErrorContext(ctx, "notification scan failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.NotifyErrorResponse{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	counts := report.Counts()
	h.logger.InfoContext(ctx, "notification scan finished",
		"day", report.Day,
		"sent", counts[notify.StatusSent],
		"failed", counts[notify.StatusFailed],
		"skipped", counts[notify.StatusSkipped],
		"nothing_due", counts[notify.StatusNothingDue],
		"partial", report.Partial,
	)
	h.storeReport(ctx, report)

	sent := report.Sent
	if sent == nil {
		sent = []notify.SentReminder{}
	}
	writeJSON(w, http.StatusOK, dto.NotifyResponse{
		Success: true,
		Sent:    sent,
		Partial: report.Partial,
	})
}

// Last handles GET /api/cron/notify/last.
func (h *CronHandler) Last(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		writeError(w, http.StatusNotFound, "NO_SCAN_REPORT", "No scan report recorded")
		return
	}

	var report notify.Report
	if err := h.reports.LastScan(r.Context(), &report); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			writeError(w, http.StatusNotFound, "NO_SCAN_REPORT", "No scan report recorded")
			return
		}
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, &report)
}

// storeReport saves the report even when the trigger has disconnected.
func (h *CronHandler) storeReport(ctx context.Context, report *notify.Report) {
	if h.reports == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportStoreTimeout)
	defer cancel()

	if err := h.reports.SetLastScan(ctx, report); err != nil {
		h.logger.WarnContext(ctx, "failed to store scan report", "error", err)
	}
}
