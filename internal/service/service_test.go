package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
)

func stored(id, name string, category model.Category, start string, period recurrence.Period, price string) model.Subscription {
	return model.Subscription{
		ID:        id,
		OwnerID:   "u1",
		Name:      name,
		Category:  category,
		StartDate: start,
		Period:    period,
		Price:     decimal.RequireFromString(price),
		CardID:    "card-1",
	}
}

func dashboardStore() *memStore {
	return &memStore{
		cards: []model.Card{{ID: "card-1", OwnerID: "u1"}},
		subs: []model.Subscription{
			stored("s1", "Gym", model.CategoryHealth, "2024-06-03", recurrence.Weekly, "10"),
			stored("s2", "Netflix", model.CategoryEntertainment, "2024-01-20", recurrence.Monthly, "15.49"),
			stored("s3", "Domain", model.CategorySoftware, "2023-12-01", recurrence.Yearly, "12"),
			stored("s4", "Broken", model.CategoryOther, "2024-01-01", recurrence.Period("hourly"), "3"),
		},
	}
}

func TestDashboard_Summary(t *testing.T) {
	store := dashboardStore()
	rec := metrics.NewInMemory()
	svc := NewDashboardService(store, nil, fixedClock(2024, 6, 1), time.Minute, discard(), rec)

	d, err := svc.Summary(context.Background(), "u1", DashboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", d.Day)
	assert.Equal(t, "2024-06", d.Month)
	// Gym 4x10 + Netflix 15.49; Domain renews in December.
	assert.True(t, d.MonthlyTotal.Equal(decimal.RequireFromString("55.49")), "total %s", d.MonthlyTotal)
	assert.Equal(t, 4, d.ActiveCount)

	require.Len(t, d.Upcoming, 1)
	assert.Equal(t, "Gym", d.Upcoming[0].Name)
	assert.Equal(t, "2024-06-03", d.Upcoming[0].Date)

	require.Len(t, d.Skipped, 1)
	assert.Equal(t, "s4", d.Skipped[0].SubscriptionID)
	assert.Equal(t, uint64(1), rec.Snapshot().SkippedRecords["invalid_period"])

	// Default sort is by effective date; unschedulable records last.
	var names []string
	for _, v := range d.Subscriptions {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"Gym", "Netflix", "Domain", "Broken"}, names)
	assert.Equal(t, "2024-12-01", d.Subscriptions[2].EffectiveDate)
	assert.Empty(t, d.Subscriptions[3].EffectiveDate)
}

func TestDashboard_UpcomingSortedAndDueTomorrow(t *testing.T) {
	store := &memStore{subs: []model.Subscription{
		stored("a", "Later", model.CategoryOther, "2024-06-07", recurrence.Monthly, "1"),
		stored("b", "Sooner", model.CategoryOther, "2024-05-02", recurrence.Monthly, "1"),
		stored("c", "Outside", model.CategoryOther, "2024-06-09", recurrence.Monthly, "1"),
	}}
	svc := NewDashboardService(store, nil, fixedClock(2024, 6, 1), 0, discard(), nil)

	d, err := svc.Summary(context.Background(), "u1", DashboardQuery{})
	require.NoError(t, err)

	require.Len(t, d.Upcoming, 2)
	assert.Equal(t, "Sooner", d.Upcoming[0].Name)
	assert.Equal(t, "Later", d.Upcoming[1].Name)

	for _, v := range d.Subscriptions {
		assert.Equal(t, v.Name == "Sooner", v.DueTomorrow, v.Name)
	}
}

func TestDashboard_SearchAndSort(t *testing.T) {
	svc := NewDashboardService(dashboardStore(), nil, fixedClock(2024, 6, 1), 0, discard(), nil)
	ctx := context.Background()

	d, err := svc.Summary(ctx, "u1", DashboardQuery{Search: "HEALTH"})
	require.NoError(t, err)
	require.Len(t, d.Subscriptions, 1)
	assert.Equal(t, "Gym", d.Subscriptions[0].Name)
	// Search does not change the totals.
	assert.True(t, d.MonthlyTotal.Equal(decimal.RequireFromString("55.49")))

	d, err = svc.Summary(ctx, "u1", DashboardQuery{Sort: SortByPrice})
	require.NoError(t, err)
	assert.Equal(t, "Netflix", d.Subscriptions[0].Name)
	assert.Equal(t, "Broken", d.Subscriptions[3].Name)

	d, err = svc.Summary(ctx, "u1", DashboardQuery{Sort: SortByName})
	require.NoError(t, err)
	assert.Equal(t, "Broken", d.Subscriptions[0].Name)
	assert.Equal(t, "Netflix", d.Subscriptions[3].Name)
}

func TestDashboard_CategoryFilterNarrowsTotals(t *testing.T) {
	svc := NewDashboardService(dashboardStore(), newMemCache(), fixedClock(2024, 6, 1), 0, discard(), nil)

	d, err := svc.Summary(context.Background(), "u1", DashboardQuery{Categories: []model.Category{model.CategoryHealth}})
	require.NoError(t, err)
	assert.True(t, d.MonthlyTotal.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 1, d.ActiveCount)
}

func TestDashboard_CacheHitAndInvalidation(t *testing.T) {
	store := dashboardStore()
	summaries := newMemCache()
	rec := metrics.NewInMemory()
	clock := fixedClock(2024, 6, 1)
	dash := NewDashboardService(store, summaries, clock, time.Minute, discard(), rec)
	subs := NewSubscriptionService(store, summaries, clock, discard(), rec)
	ctx := context.Background()

	_, err := dash.Summary(ctx, "u1", DashboardQuery{})
	require.NoError(t, err)
	_, err = dash.Summary(ctx, "u1", DashboardQuery{Sort: SortByName})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	snap := rec.Snapshot()
	assert.Equal(t, uint64(1), snap.SummaryCacheMisses)
	assert.Equal(t, uint64(1), snap.SummaryCacheHits)

	require.NoError(t, subs.Delete(ctx, "u1", "s2"))
	assert.Equal(t, []string{"u1"}, summaries.invalidated)

	d, err := dash.Summary(ctx, "u1", DashboardQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
	assert.True(t, d.MonthlyTotal.Equal(decimal.NewFromInt(40)))
}

func TestDashboard_MissingUser(t *testing.T) {
	svc := NewDashboardService(&memStore{}, nil, fixedClock(2024, 6, 1), 0, discard(), nil)
	_, err := svc.Summary(context.Background(), "", DashboardQuery{})
	assert.ErrorIs(t, err, ErrMissingUser)
}

func TestParseSortKey(t *testing.T) {
	for raw, want := range map[string]SortKey{"": SortByDate, "Name": SortByName, " price ": SortByPrice, "date": SortByDate} {
		got, err := ParseSortKey(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseSortKey("rating")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func validInput() SubscriptionInput {
	return SubscriptionInput{
		Name:          "  Spotify ",
		Category:      "entertainment",
		StartDate:     "2024-01-31",
		BillingPeriod: "Monthly",
		Price:         decimal.RequireFromString("10.99"),
		CardID:        "card-1",
	}
}

func TestSubscriptionService_Create(t *testing.T) {
	store := &memStore{cards: []model.Card{{ID: "card-1", OwnerID: "u1"}}}
	rec := metrics.NewInMemory()
	svc := NewSubscriptionService(store, nil, fixedClock(2024, 2, 1), discard(), rec)

	sub, err := svc.Create(context.Background(), "u1", validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID)
	assert.Equal(t, "Spotify", sub.Name)
	assert.Equal(t, model.CategoryEntertainment, sub.Category)
	assert.Equal(t, recurrence.Monthly, sub.Period)
	// Hint filled from the schedule: Jan 31 clamps to Feb 29.
	assert.Equal(t, "2024-02-29", sub.NextBillingDate)
	assert.Equal(t, uint64(1), rec.Snapshot().RecordWrites["subscription/created"])
}

func TestSubscriptionService_CreateValidation(t *testing.T) {
	svc := NewSubscriptionService(&memStore{cards: []model.Card{{ID: "card-1", OwnerID: "u1"}}}, nil, fixedClock(2024, 2, 1), discard(), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(*SubscriptionInput)
		field string
	}{
		{"missing name", func(in *SubscriptionInput) { in.Name = " " }, "name"},
		{"bad category", func(in *SubscriptionInput) { in.Category = "Games" }, "category"},
		{"bad date", func(in *SubscriptionInput) { in.StartDate = "31/01/2024" }, "start_date"},
		{"bad period", func(in *SubscriptionInput) { in.BillingPeriod = "hourly" }, "billing_period"},
		{"negative price", func(in *SubscriptionInput) { in.Price = decimal.NewFromInt(-1) }, "price"},
		{"missing card", func(in *SubscriptionInput) { in.CardID = "" }, "card_id"},
		{"bad url", func(in *SubscriptionInput) { in.ManageURL = "not a url" }, "manage_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)
			_, err := svc.Create(ctx, "u1", in)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestSubscriptionService_ForeignCard(t *testing.T) {
	store := &memStore{cards: []model.Card{{ID: "card-1", OwnerID: "someone-else"}}}
	svc := NewSubscriptionService(store, nil, fixedClock(2024, 2, 1), discard(), nil)

	_, err := svc.Create(context.Background(), "u1", validInput())
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestSubscriptionService_UpdateAndDelete(t *testing.T) {
	store := &memStore{cards: []model.Card{{ID: "card-1", OwnerID: "u1"}}}
	summaries := newMemCache()
	svc := NewSubscriptionService(store, summaries, fixedClock(2024, 2, 1), discard(), nil)
	ctx := context.Background()

	sub, err := svc.Create(ctx, "u1", validInput())
	require.NoError(t, err)

	in := validInput()
	in.Price = decimal.RequireFromString("12.99")
	in.NextBillingDate = "2024-03-31"
	updated, err := svc.Update(ctx, "u1", sub.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.99")))
	assert.Equal(t, "2024-03-31", updated.NextBillingDate)

	_, err = svc.Update(ctx, "u2", sub.ID, in)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	require.NoError(t, svc.Delete(ctx, "u1", sub.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u1", sub.ID), ErrSubscriptionNotFound)
	assert.Len(t, summaries.invalidated, 3)
}

func TestCardService(t *testing.T) {
	store := &memStore{}
	svc := NewCardService(store, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", CardInput{Name: "Main", Bank: "Acme", Last4: "12a4", Expiration: "01/27"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "last4", verr.Field)

	_, err = svc.Create(ctx, "u1", CardInput{Name: "Main", Bank: "Acme", Last4: "1234", Expiration: "13/27"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "expiration_date", verr.Field)

	card, err := svc.Create(ctx, "u1", CardInput{Name: " Main ", Bank: "Acme", Last4: "1234", Expiration: "01/27"})
	require.NoError(t, err)
	assert.Equal(t, "Main", card.Name)

	card, err = svc.Update(ctx, "u1", card.ID, CardInput{Name: "Main", Bank: "Acme", Last4: "9999", Expiration: "02/28"})
	require.NoError(t, err)
	assert.Equal(t, "9999", card.Last4)

	cards, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	store.subs = append(store.subs, model.Subscription{ID: "s1", OwnerID: "u1", CardID: card.ID})
	assert.ErrorIs(t, svc.Delete(ctx, "u1", card.ID), ErrCardInUse)

	store.subs = nil
	require.NoError(t, svc.Delete(ctx, "u1", card.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "u1", card.ID), ErrCardNotFound)

	empty, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestPreferenceService(t *testing.T) {
	svc := NewPreferenceService(&memPrefs{}, nil)
	ctx := context.Background()

	pref, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, pref.NotificationsOn(), "absent preference defaults to on")

	pref, err = svc.Update(ctx, "u1", PreferenceInput{Email: "ada@example.com", NotificationsEnabled: model.Bool(false)})
	require.NoError(t, err)
	assert.False(t, pref.NotificationsOn())

	pref, err = svc.Update(ctx, "u1", PreferenceInput{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.False(t, pref.NotificationsOn(), "nil flag keeps stored choice")
	assert.Equal(t, "ada@example.com", pref.Email)

	_, err = svc.Get(ctx, "")
	assert.True(t, errors.Is(err, ErrMissingUser))
}
