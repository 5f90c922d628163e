package handler

import (
	"log/slog"
	"net/http"

	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/service"
)

// PreferenceHandler serves the caller's notification preferences.
type PreferenceHandler struct {
	svc    *service.PreferenceService
	logger *slog.Logger
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(svc *service.PreferenceService, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{svc: svc, logger: logger}
}

// Get handles GET /api/v1/preferences.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	pref, err := h.svc.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

// Update handles PUT /api/v1/preferences.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.PreferenceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	pref, err := h.svc.Update(r.Context(), userID, service.PreferenceInput{
		Email:                req.Email,
		DisplayName:          req.DisplayName,
		NotificationsEnabled: req.NotificationsEnabled,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "preferences_updated",
		"user_id", userID,
		"notifications_enabled", pref.NotificationsOn(),
	)
	writeJSON(w, http.StatusOK, pref)
}
