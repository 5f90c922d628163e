package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/subtrackr/subtrackr/internal/cache"
	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
	"github.com/subtrackr/subtrackr/internal/repository"
)

// SortKey orders the dashboard's subscription list.
type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByName  SortKey = "name"
	SortByPrice SortKey = "price"
)

// ErrInvalidSort is returned for an unknown sort key.
var ErrInvalidSort = errors.New("invalid sort key")

// ParseSortKey validates a sort key. Empty means date.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return SortByDate, nil
	case SortByDate, SortByName, SortByPrice:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, raw)
	}
}

// DashboardQuery narrows and orders the subscription list. Search and Sort
// only affect Subscriptions; Categories narrows every figure.
type DashboardQuery struct {
	Search     string
	Sort       SortKey
	Categories []model.Category
}

// DashboardService builds per-user subscription summaries.
type DashboardService struct {
	store   SubscriptionStore
	cache   SummaryCache
	clock   Clock
	ttl     time.Duration
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewDashboardService creates a new DashboardService. cache may be nil.
func NewDashboardService(store SubscriptionStore, summaries SummaryCache, clock Clock, ttl time.Duration, logger *slog.Logger, recorder metrics.Recorder) *DashboardService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &DashboardService{
		store:   store,
		cache:   summaries,
		clock:   clock,
		ttl:     ttl,
		logger:  logger.With("component", "service.dashboard"),
		metrics: recorder,
	}
}

// Summary returns userID's dashboard as of today in the reference timezone.
func (s *DashboardService) Summary(ctx context.Context, userID string, q DashboardQuery) (*model.Dashboard, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}

	cal := s.clock.Calendar()
	day := recurrence.FormatDate(cal.Today())
	cacheable := s.cache != nil && len(q.Categories) == 0

	if cacheable {
		d, err := s.cache.GetDashboard(ctx, userID, day)
		switch {
		case err == nil:
			s.metrics.IncSummaryCacheHit()
			return view(d, q), nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.metrics.IncSummaryCacheMiss()
		default:
			s.logger.WarnContext(ctx, "summary cache read failed", "user_id", userID, "error", err)
		}
	}

	subs, err := s.store.ListSubscriptions(ctx, repository.SubscriptionFilter{
		OwnerID:    userID,
		Categories: q.Categories,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	d := s.build(ctx, cal, userID, subs)

	if cacheable {
		if err := s.cache.SetDashboard(ctx, d, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "summary cache write failed", "user_id", userID, "error", err)
		}
	}

	return view(d, q), nil
}

// build computes every figure of the dashboard from the stored records.
func (s *DashboardService) build(ctx context.Context, cal recurrence.Calendar, userID string, subs []model.Subscription) *model.Dashboard {
	month := cal.CurrentMonth()

	items := make([]recurrence.Billable, len(subs))
	for i := range subs {
		items[i] = &subs[i]
	}
	breakdown := cal.MonthlyBreakdown(items, month)

	d := &model.Dashboard{
		UserID:        userID,
		Day:           recurrence.FormatDate(cal.Today()),
		Month:         month.String(),
		MonthlyTotal:  breakdown.Total,
		ActiveCount:   len(subs),
		Upcoming:      []model.UpcomingPayment{},
		Subscriptions: make([]model.SubscriptionView, 0, len(subs)),
	}

	for i := range subs {
		sub := subs[i]
		v := model.SubscriptionView{Subscription: sub}

		occ, err := cal.Next(&sub)
		if err != nil {
			kind := recurrence.ErrorKind(err)
			s.logger.WarnContext(ctx, "skipping subscription",
				"user_id", userID,
				"subscription_id", sub.ID,
				"reason", kind,
				"error", err,
			)
			s.metrics.IncSkippedRecord(kind)
			d.Skipped = append(d.Skipped, model.SkippedRecord{
				SubscriptionID: sub.ID,
				Name:           sub.Name,
				Reason:         err.Error(),
			})
			d.Subscriptions = append(d.Subscriptions, v)
			continue
		}

		v.EffectiveDate = recurrence.FormatDate(occ)
		v.DueTomorrow = cal.DueTomorrow(occ)
		d.Subscriptions = append(d.Subscriptions, v)

		if cal.Upcoming(occ, recurrence.DefaultUpcomingDays) {
			d.Upcoming = append(d.Upcoming, model.UpcomingPayment{
				SubscriptionID: sub.ID,
				Name:           sub.Name,
				Date:           v.EffectiveDate,
				Price:          sub.Price,
			})
		}
	}

	slices.SortStableFunc(d.Upcoming, func(a, b model.UpcomingPayment) int {
		return strings.Compare(a.Date, b.Date)
	})

	return d
}

// view applies search and sort to a copy of d's subscription list.
func view(d *model.Dashboard, q DashboardQuery) *model.Dashboard {
	out := *d
	out.Subscriptions = filterSubscriptions(d.Subscriptions, q.Search)
	sortSubscriptions(out.Subscriptions, q.Sort)
	return &out
}

func filterSubscriptions(subs []model.SubscriptionView, search string) []model.SubscriptionView {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]model.SubscriptionView, 0, len(subs))
	for _, v := range subs {
		if term == "" ||
			strings.Contains(strings.ToLower(v.Name), term) ||
			strings.Contains(strings.ToLower(string(v.Category)), term) {
			out = append(out, v)
		}
	}
	return out
}

func sortSubscriptions(subs []model.SubscriptionView, key SortKey) {
	switch key {
	case SortByName:
		slices.SortStableFunc(subs, func(a, b model.SubscriptionView) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	case SortByPrice:
		slices.SortStableFunc(subs, func(a, b model.SubscriptionView) int {
			return b.Price.Cmp(a.Price)
		})
	default:
		// Unschedulable records sort last.
		slices.SortStableFunc(subs, func(a, b model.SubscriptionView) int {
			if (a.EffectiveDate == "") != (b.EffectiveDate == "") {
				if a.EffectiveDate == "" {
					return 1
				}
				return -1
			}
			return cmp.Compare(a.EffectiveDate, b.EffectiveDate)
		})
	}
}
