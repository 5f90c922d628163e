// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/notify"
)

// SubscriptionRequest is the body of subscription create and update calls.
// Price accepts a JSON number or a numeric string. Tags only catch shape
// errors; category, period and date rules live on model.Subscription.
type SubscriptionRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Category        string          `json:"category" validate:"required"`
	StartDate       string          `json:"start_date" validate:"required"`
	BillingPeriod   string          `json:"billing_period" validate:"required"`
	Price           decimal.Decimal `json:"price"`
	CardID          string          `json:"card_id" validate:"required"`
	ManageURL       string          `json:"manage_url,omitempty" validate:"omitempty,url,max=2048"`
	NextBillingDate string          `json:"next_billing_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CardRequest is the body of card create and update calls.
type CardRequest struct {
	Name       string `json:"card_name" validate:"required,max=100"`
	Bank       string `json:"bank" validate:"required,max=100"`
	Last4      string `json:"last4" validate:"required,len=4,numeric"`
	Expiration string `json:"expiration_date" validate:"required,len=5"`
}

// PreferenceRequest updates the caller's notification profile. Omitted
// fields keep their stored values.
type PreferenceRequest struct {
	Email                string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	DisplayName          string `json:"display_name,omitempty" validate:"max=100"`
	NotificationsEnabled *bool  `json:"notifications_enabled,omitempty"`
}

// ListResponse wraps a collection.
type ListResponse[T any] struct {
	Data []T `json:"data"`
}

// NewListResponse never returns a nil Data slice, so empty lists encode as [].
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items}
}

// OccurrenceResponse is the result of a next-occurrence lookup.
type OccurrenceResponse struct {
	Start       string `json:"start"`
	Period      string `json:"period"`
	Today       string `json:"today"`
	Next        string `json:"next"`
	DueTomorrow bool   `json:"due_tomorrow"`
}

// NotifyResponse is the body of a successful notification scan.
type NotifyResponse struct {
	Success bool                  `json:"success"`
	Sent    []notify.SentReminder `json:"sent"`
	Partial bool                  `json:"partial,omitempty"`
}

// NotifyErrorResponse is the body of a failed notification scan.
type NotifyErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}
