package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/repository"
)

// CardInput defines the writable fields of a card.
type CardInput struct {
	Name       string
	Bank       string
	Last4      string
	Expiration string
}

// CardService handles payment card business logic.
type CardService struct {
	store   CardStore
	metrics metrics.Recorder
}

// NewCardService creates a new CardService.
func NewCardService(store CardStore, recorder metrics.Recorder) *CardService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CardService{store: store, metrics: recorder}
}

// List returns ownerID's cards.
func (s *CardService) List(ctx context.Context, ownerID string) ([]model.Card, error) {
	if ownerID == "" {
		return nil, ErrMissingUser
	}
	cards, err := s.store.ListCards(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	if cards == nil {
		cards = []model.Card{}
	}
	return cards, nil
}

// Create validates and stores a new card.
func (s *CardService) Create(ctx context.Context, ownerID string, in CardInput) (*model.Card, error) {
	if ownerID == "" {
		return nil, ErrMissingUser
	}

	card := &model.Card{
		ID:        model.NewID(),
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	applyCard(card, in)
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	s.metrics.IncRecordWrite("card", "created")
	return card, nil
}

// Update replaces the writable fields of an existing card.
func (s *CardService) Update(ctx context.Context, ownerID, id string, in CardInput) (*model.Card, error) {
	card, err := s.store.GetCard(ctx, ownerID, id)
	if err != nil {
		return nil, mapStoreError(err)
	}

	applyCard(card, in)
	if err := card.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateCard(ctx, card); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	s.metrics.IncRecordWrite("card", "updated")
	return card, nil
}

// Delete removes a card that no subscription is charged to.
func (s *CardService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCard(ctx, ownerID, id); err != nil {
		return mapStoreError(err)
	}
	s.metrics.IncRecordWrite("card", "deleted")
	return nil
}

func applyCard(card *model.Card, in CardInput) {
	card.Name = strings.TrimSpace(in.Name)
	card.Bank = strings.TrimSpace(in.Bank)
	card.Last4 = strings.TrimSpace(in.Last4)
	card.Expiration = strings.TrimSpace(in.Expiration)
}
