package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/repository"
)

// PreferenceInput updates a user's profile. Empty strings and a nil flag
// leave the stored values unchanged.
type PreferenceInput struct {
	Email                string
	DisplayName          string
	NotificationsEnabled *bool
}

// PreferenceService manages notification preferences.
type PreferenceService struct {
	store   PreferenceStore
	metrics metrics.Recorder
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(store PreferenceStore, recorder metrics.Recorder) *PreferenceService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PreferenceService{store: store, metrics: recorder}
}

// Get returns userID's preferences. A user with no stored record gets the
// defaults, with notifications on.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*model.UserPreference, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	pref, err := s.store.GetUserPreference(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return &model.UserPreference{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return pref, nil
}

// Update upserts userID's preferences.
func (s *PreferenceService) Update(ctx context.Context, userID string, in PreferenceInput) (*model.UserPreference, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	pref, err := s.store.UpsertUserPreference(ctx, &model.UserPreference{
		UserID:               userID,
		Email:                strings.TrimSpace(in.Email),
		DisplayName:          strings.TrimSpace(in.DisplayName),
		NotificationsEnabled: in.NotificationsEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	s.metrics.IncRecordWrite("preference", "updated")
	return pref, nil
}
