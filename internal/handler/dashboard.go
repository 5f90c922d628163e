package handler

import (
	"log/slog"
	"net/http"

	"github.com/subtrackr/subtrackr/internal/service"
)

// DashboardHandler serves the per-user subscription summary.
type DashboardHandler struct {
	svc    *service.DashboardService
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Get handles GET /api/v1/dashboard.
//
// Query parameters:
//   - q: case-insensitive match on name or category
//   - sort: date (default), name or price
//   - category: repeated or comma separated category filter
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	sortKey, err := service.ParseSortKey(query.Get("sort"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	categories, err := parseCategories(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	d, err := h.svc.Summary(r.Context(), userID, service.DashboardQuery{
		Search:     query.Get("q"),
		Sort:       sortKey,
		Categories: categories,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
