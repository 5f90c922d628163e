package service

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/subtrackr/subtrackr/internal/cache"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/repository"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(y int, m time.Month, d int) Clock {
	return Clock{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(y, m, d, 10, 0, 0, 0, time.UTC) },
	}
}

// memStore is an in-memory SubscriptionStore and CardStore.
type memStore struct {
	mu    sync.Mutex
	subs  []model.Subscription
	cards []model.Card
	lists int
}

func (m *memStore) ListSubscriptions(_ context.Context, f repository.SubscriptionFilter) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
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
	for i := range m.subs {
		if m.subs[i].ID == id && m.subs[i].OwnerID == ownerID {
			m.subs = slices.Delete(m.subs, i, i+1)
			return nil
		}
	}
	return repository.ErrSubscriptionNotFound
}

func (m *memStore) ownsCard(ownerID, cardID string) bool {
	for _, c := range m.cards {
		if c.ID == cardID && c.OwnerID == ownerID {
			return true
		}
	}
	return false
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
	for i := range m.cards {
		if m.cards[i].ID == id && m.cards[i].OwnerID == ownerID {
			m.cards = slices.Delete(m.cards, i, i+1)
			return nil
		}
	}
	return repository.ErrCardNotFound
}

// memCache is an in-memory SummaryCache.
type memCache struct {
	mu          sync.Mutex
	entries     map[string]model.Dashboard
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]model.Dashboard)}
}

func (c *memCache) GetDashboard(_ context.Context, userID, day string) (*model.Dashboard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[userID+"|"+day]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &d, nil
}

func (c *memCache) SetDashboard(_ context.Context, d *model.Dashboard, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d.UserID+"|"+d.Day] = *d
	return nil
}

func (c *memCache) InvalidateDashboard(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, userID+"|") {
			delete(c.entries, k)
		}
	}
	c.invalidated = append(c.invalidated, userID)
	return nil
}

// memPrefs is an in-memory PreferenceStore with the repository's merge rules.
type memPrefs struct {
	prefs map[string]model.UserPreference
}

func (p *memPrefs) GetUserPreference(_ context.Context, userID string) (*model.UserPreference, error) {
	u, ok := p.prefs[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (p *memPrefs) UpsertUserPreference(_ context.Context, in *model.UserPreference) (*model.UserPreference, error) {
	if p.prefs == nil {
		p.prefs = make(map[string]model.UserPreference)
	}
	cur := p.prefs[in.UserID]
	cur.UserID = in.UserID
	if in.Email != "" {
		cur.Email = in.Email
	}
	if in.DisplayName != "" {
		cur.DisplayName = in.DisplayName
	}
	if in.NotificationsEnabled != nil {
		cur.NotificationsEnabled = in.NotificationsEnabled
	}
	p.prefs[in.UserID] = cur
	return &cur, nil
}
