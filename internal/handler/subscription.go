package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/service"
)

// SubscriptionHandler handles HTTP requests for subscription operations.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/subscriptions. Repeated or comma separated
// category parameters narrow the result.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	categories, err := parseCategories(r)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	subs, err := h.svc.List(r.Context(), userID, categories)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewListResponse(subs))
}

// Get handles GET /api/v1/subscriptions/{id}.
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	sub, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Create handles POST /api/v1/subscriptions.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.Create(r.Context(), userID, subscriptionInput(req))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription_created",
		"subscription_id", sub.ID,
		"user_id", userID,
		"billing_period", sub.Period,
	)
	writeJSON(w, http.StatusCreated, sub)
}

// Update handles PUT /api/v1/subscriptions/{id}.
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req dto.SubscriptionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), subscriptionInput(req))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Delete handles DELETE /api/v1/subscriptions/{id}.
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subscription_deleted", "subscription_id", id, "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

func subscriptionInput(req dto.SubscriptionRequest) service.SubscriptionInput {
	return service.SubscriptionInput{
		Name:            req.Name,
		Category:        req.Category,
		StartDate:       req.StartDate,
		BillingPeriod:   req.BillingPeriod,
		Price:           req.Price,
		CardID:          req.CardID,
		ManageURL:       req.ManageURL,
		NextBillingDate: req.NextBillingDate,
	}
}

// parseCategories reads ?category=a&category=b and ?category=a,b.
func parseCategories(r *http.Request) ([]model.Category, error) {
	var categories []model.Category
	for _, raw := range r.URL.Query()["category"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := model.ParseCategory(part)
			if err != nil {
				return nil, err
			}
			categories = append(categories, c)
		}
	}
	return categories, nil
}
