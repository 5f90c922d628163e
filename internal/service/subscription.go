package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/repository"
)

// SubscriptionInput defines the writable fields of a subscription.
type SubscriptionInput struct {
	Name            string
	Category        string
	StartDate       string
	BillingPeriod   string
	Price           decimal.Decimal
	CardID          string
	ManageURL       string
	NextBillingDate string
}

// SubscriptionService handles subscription business logic.
type SubscriptionService struct {
	store   SubscriptionStore
	cache   SummaryCache
	clock   Clock
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewSubscriptionService creates a new SubscriptionService. cache may be nil.
func NewSubscriptionService(store SubscriptionStore, summaries SummaryCache, clock Clock, logger *slog.Logger, recorder metrics.Recorder) *SubscriptionService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		store:   store,
		cache:   summaries,
		clock:   clock,
		logger:  logger.With("component", "service.subscription"),
		metrics: recorder,
	}
}

// List returns ownerID's subscriptions, optionally narrowed to categories.
func (s *SubscriptionService) List(ctx context.Context, ownerID string, categories []model.Category) ([]model.Subscription, error) {
	if ownerID == "" {
		return nil, ErrMissingUser
	}
	subs, err := s.store.ListSubscriptions(ctx, repository.SubscriptionFilter{OwnerID: ownerID, Categories: categories})
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	return subs, nil
}

// Get returns one subscription.
func (s *SubscriptionService) Get(ctx context.Context, ownerID, id string) (*model.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, ownerID, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return sub, nil
}

// Create validates and stores a new subscription.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, in SubscriptionInput) (*model.Subscription, error) {
	if ownerID == "" {
		return nil, ErrMissingUser
	}

	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:        model.NewID(),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.apply(sub, in); err != nil {
		return nil, err
	}

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.metrics.IncRecordWrite("subscription", "created")
	s.invalidate(ctx, ownerID)
	return sub, nil
}

// Update replaces the writable fields of an existing subscription.
func (s *SubscriptionService) Update(ctx context.Context, ownerID, id string, in SubscriptionInput) (*model.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, ownerID, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := s.apply(sub, in); err != nil {
		return nil, err
	}
	sub.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		if mapped := mapStoreError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.metrics.IncRecordWrite("subscription", "updated")
	s.invalidate(ctx, ownerID)
	return sub, nil
}

// Delete removes a subscription.
func (s *SubscriptionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteSubscription(ctx, ownerID, id); err != nil {
		return mapStoreError(err)
	}
	s.metrics.IncRecordWrite("subscription", "deleted")
	s.invalidate(ctx, ownerID)
	return nil
}

// apply copies input onto sub and validates the result. A missing
// next billing hint is filled from the schedule as of today; the hint is
// only ever written here, on an explicit edit.
func (s *SubscriptionService) apply(sub *model.Subscription, in SubscriptionInput) error {
	sub.Name = in.Name
	sub.Category = model.Category(in.Category)
	sub.StartDate = in.StartDate
	sub.Period = recurrence.Period(in.BillingPeriod)
	sub.Price = in.Price
	sub.CardID = in.CardID
	sub.ManageURL = in.ManageURL
	sub.NextBillingDate = in.NextBillingDate

	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return err
	}

	if sub.NextBillingDate == "" {
		if next, err := s.clock.Calendar().Next(sub); err == nil {
			sub.NextBillingDate = recurrence.FormatDate(next)
		}
	}
	return nil
}

func (s *SubscriptionService) invalidate(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "summary cache invalidation failed", "user_id", ownerID, "error", err)
	}
}
