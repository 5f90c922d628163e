package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/subtrackr/subtrackr/internal/handler/dto"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/repository"
	"github.com/subtrackr/subtrackr/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(y int, m time.Month, d int) service.Clock {
	return service.Clock{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(y, m, d, 9, 0, 0, 0, time.UTC) },
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// memStore is an in-memory store backing every service the handlers use.
type memStore struct {
	mu    sync.Mutex
	subs  []model.Subscription
	cards []model.Card
	prefs map[string]model.UserPreference
}

func newMemStore() *memStore {
	return &memStore{prefs: make(map[string]model.UserPreference)}
}

func (m *memStore) ListSubscriptions(_ context.Context, f repository.SubscriptionFilter) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		if s.OwnerID != f.OwnerID {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, s.Category) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) GetSubscription(_ context.Context, ownerID, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.ID == id && s.OwnerID == ownerID {
			cp := s
			return &cp, nil
		}
	}
	return nil, repository.ErrSubscriptionNotFound
}

func (m *memStore) CreateSubscription(_ context.Context, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsCard(s.OwnerID, s.CardID) {
		return repository.ErrCardNotFound
	}
	m.subs = append(m.subs, *s)
	return nil
}

func (m *memStore) UpdateSubscription(_ context.Context, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsCard(s.OwnerID, s.CardID) {
		return repository.ErrCardNotFound
	}
	for i := range m.subs {
		if m.subs[i].ID == s.ID && m.subs[i].OwnerID == s.OwnerID {
			m.subs[i] = *s
			return nil
		}
	}
	return repository.ErrSubscriptionNotFound
}

func (m *memStore) DeleteSubscription(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.ID == id && s.OwnerID == ownerID {
			m.subs = slices.Delete(m.subs, i, i+1)
			return nil
		}
	}
	return repository.ErrSubscriptionNotFound
}

func (m *memStore) ListCards(_ context.Context, ownerID string) ([]model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Card
	for _, c := range m.cards {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetCard(_ context.Context, ownerID, id string) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.ID == id && c.OwnerID == ownerID {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrCardNotFound
}

func (m *memStore) CreateCard(_ context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, *c)
	return nil
}

func (m *memStore) UpdateCard(_ context.Context, c *model.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cards {
		if m.cards[i].ID == c.ID && m.cards[i].OwnerID == c.OwnerID {
			m.cards[i] = *c
			return nil
		}
	}
	return repository.ErrCardNotFound
}

func (m *memStore) DeleteCard(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.CardID == id {
			return repository.ErrCardInUse
		}
	}
	for i, c := range m.cards {
		if c.ID == id && c.OwnerID == ownerID {
			m.cards = slices.Delete(m.cards, i, i+1)
			return nil
		}
	}
	return repository.ErrCardNotFound
}

func (m *memStore) GetUserPreference(_ context.Context, userID string) (*model.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prefs[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &p, nil
}

func (m *memStore) UpsertUserPreference(_ context.Context, pref *model.UserPreference) (*model.UserPreference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.prefs[pref.UserID]
	stored.UserID = pref.UserID
	if pref.Email != "" {
		stored.Email = pref.Email
	}
	if pref.DisplayName != "" {
		stored.DisplayName = pref.DisplayName
	}
	if pref.NotificationsEnabled != nil {
		stored.NotificationsEnabled = pref.NotificationsEnabled
	}
	m.prefs[pref.UserID] = stored
	return &stored, nil
}

// ownsCard must be called with mu held.
func (m *memStore) ownsCard(ownerID, cardID string) bool {
	for _, c := range m.cards {
		if c.ID == cardID && c.OwnerID == ownerID {
			return true
		}
	}
	return false
}
