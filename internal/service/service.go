// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/repository"
)

// Service errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrCardInUse            = errors.New("card is still charged by a subscription")
	ErrMissingUser          = errors.New("user id is required")
)

// SubscriptionStore is the persistence the subscription and dashboard
// services need. *repository.Repository implements it.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, filter repository.SubscriptionFilter) ([]model.Subscription, error)
	GetSubscription(ctx context.Context, ownerID, id string) (*model.Subscription, error)
	CreateSubscription(ctx context.Context, s *model.Subscription) error
	UpdateSubscription(ctx context.Context, s *model.Subscription) error
	DeleteSubscription(ctx context.Context, ownerID, id string) error
}

// CardStore persists payment cards.
type CardStore interface {
	ListCards(ctx context.Context, ownerID string) ([]model.Card, error)
	GetCard(ctx context.Context, ownerID, id string) (*model.Card, error)
	CreateCard(ctx context.Context, c *model.Card) error
	UpdateCard(ctx context.Context, c *model.Card) error
	DeleteCard(ctx context.Context, ownerID, id string) error
}

// PreferenceStore persists user notification preferences.
type PreferenceStore interface {
	GetUserPreference(ctx context.Context, userID string) (*model.UserPreference, error)
	UpsertUserPreference(ctx context.Context, pref *model.UserPreference) (*model.UserPreference, error)
}

// SummaryCache caches dashboard summaries per user and day.
// *cache.Cache implements it.
type SummaryCache interface {
	GetDashboard(ctx context.Context, userID, day string) (*model.Dashboard, error)
	SetDashboard(ctx context.Context, d *model.Dashboard, ttl time.Duration) error
	InvalidateDashboard(ctx context.Context, userID string) error
}

// Clock pins the reference timezone and the source of "now".
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

// Calendar returns a Calendar for the current instant.
func (c Clock) Calendar() recurrence.Calendar {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return recurrence.NewCalendar(now(), c.Location)
}

func mapStoreError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		return ErrSubscriptionNotFound
	case errors.Is(err, repository.ErrCardNotFound):
		return ErrCardNotFound
	case errors.Is(err, repository.ErrCardInUse):
		return ErrCardInUse
	default:
		return err
	}
}
