// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/subtrackr/subtrackr/internal/auth"
	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/service"
)

// Version is reported by the index endpoint.
const Version = "1.0.0"

// Handler serves the endpoints that carry no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Index identifies the service.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "subtrackr",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON decodes and validates a request body into dst. It writes the
// error response itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		}
		return false
	}

	if err := dto.Validate(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := dto.ErrorResponse{Error: err.Error(), Code: "VALIDATION_FAILED"}
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// callerID returns the authenticated user, writing a 401 when absent.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := auth.UserIDFromContext(r.Context())
	if id == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing user identity")
		return "", false
	}
	return id, true
}

// handleServiceError maps service and domain errors to responses. Unknown
// errors are logged and hidden behind a 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeValidationError(w, err)
	case errors.Is(err, recurrence.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "INVALID_PERIOD", "Unknown billing period")
	case errors.Is(err, recurrence.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "INVALID_DATE", "Invalid date")
	case errors.Is(err, service.ErrInvalidSort):
		writeError(w, http.StatusBadRequest, "INVALID_SORT", "Sort must be date, name or price")
	case errors.Is(err, service.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", "Subscription not found")
	case errors.Is(err, service.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found")
	case errors.Is(err, service.ErrCardInUse):
		writeError(w, http.StatusConflict, "CARD_IN_USE", "Card is still charged by a subscription")
	case errors.Is(err, service.ErrMissingUser):
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing user identity")
	default:
		logger.ErrorContext(r.Context(), "internal_error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
