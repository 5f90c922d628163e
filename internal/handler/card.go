package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/service"
)

// CardHandler handles HTTP requests for payment cards.
type CardHandler struct {
	svc    *service.CardService
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	cards, err := h.svc.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewListResponse(cards))
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.CardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.svc.Create(r.Context(), userID, cardInput(req))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "card_created", "card_id", card.ID, "user_id", userID)
	writeJSON(w, http.StatusCreated, card)
}

// Update handles PUT /api/v1/cards/{id}.
func (h *CardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.CardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), cardInput(req))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// Delete handles DELETE /api/v1/cards/{id}. A card still charged by a
// subscription is kept and reported as a conflict.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func cardInput(req dto.CardRequest) service.CardInput {
	return service.CardInput{
		Name:       req.Name,
		Bank:       req.Bank,
		Last4:      req.Last4,
		Expiration: req.Expiration,
	}
}
