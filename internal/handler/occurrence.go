package handler

import (
	"log/slog"
	"net/http"

	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/service"
)

// OccurrenceHandler exposes the recurrence engine directly.
type OccurrenceHandler struct {
	clock  service.Clock
	logger *slog.Logger
}

// NewOccurrenceHandler creates a new OccurrenceHandler.
func NewOccurrenceHandler(clock service.Clock, logger *slog.Logger) *OccurrenceHandler {
	return &OccurrenceHandler{clock: clock, logger: logger}
}

// Next handles GET /api/v1/occurrences/next?start=YYYY-MM-DD&period=monthly.
func (h *OccurrenceHandler) Next(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	rawStart, rawPeriod := query.Get("start"), query.Get("period")
	if rawStart == "" || rawPeriod == "" {
		writeError(w, http.StatusBadRequest, "MISSING_PARAMETER", "start and period are required")
		return
	}

	cal := h.clock.Calendar()
	start, err := cal.ParseDate(rawStart)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	period, err := recurrence.ParsePeriod(rawPeriod)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	next, err := cal.NextOccurrence(start, period)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.OccurrenceResponse{
		Start:       recurrence.FormatDate(start),
		Period:      period.String(),
		Today:       recurrence.FormatDate(cal.Today()),
		Next:        recurrence.FormatDate(next),
		DueTomorrow: cal.DueTomorrow(next),
	})
}
