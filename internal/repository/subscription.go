package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/subtrackr/subtrackr/internal/model"
	"github.com/subtrackr/subtrackr/internal/recurrence"
)

// Common errors for subscription repository operations.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCardNotFound         = errors.New("card not found")
)

// SubscriptionFilter narrows a subscription listing.
type SubscriptionFilter struct {
	OwnerID    string
	Categories []model.Category
}

const subscriptionColumns = `
	id, owner_id, name, category, start_date, billing_period, price::text,
	card_id, next_billing_date, manage_url, created_at, updated_at
`

// ListSubscriptionsFor returns every subscription owned by userID.
func (r *Repository) ListSubscriptionsFor(ctx context.Context, userID string) ([]model.Subscription, error) {
	return r.ListSubscriptions(ctx, SubscriptionFilter{OwnerID: userID})
}

// ListSubscriptions returns the subscriptions matching filter, newest first.
func (r *Repository) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE owner_id = $1`
	args := []any{filter.OwnerID}

	if len(filter.Categories) > 0 {
		categories := make([]string, len(filter.Categories))
		for i, c := range filter.Categories {
			categories[i] = string(c)
		}
		query += ` AND category = ANY($2)`
		args = append(args, pq.Array(categories))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := scanSubscription(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

// GetSubscription retrieves a subscription owned by ownerID.
func (r *Repository) GetSubscription(ctx context.Context, ownerID, id string) (*model.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1 AND owner_id = $2`

	var s model.Subscription
	if err := scanSubscription(r.pool.QueryRow(ctx, query, id, ownerID), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &s, nil
}

// CreateSubscription inserts a new subscription. The referenced card must
// belong to the same owner.
func (r *Repository) CreateSubscription(ctx context.Context, s *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, owner_id, name, category, start_date, billing_period, price,
			card_id, next_billing_date, manage_url, created_at, updated_at
		)
		SELECT $1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10, $11, $12
		WHERE EXISTS (SELECT 1 FROM cards WHERE id = $8 AND owner_id = $2)
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		string(s.Category),
		s.StartDate,
		string(s.Period),
		s.Price.String(),
		s.CardID,
		s.NextBillingDate,
		s.ManageURL,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCardNotFound
		}
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

// UpdateSubscription replaces a subscription's mutable fields.
func (r *Repository) UpdateSubscription(ctx context.Context, s *model.Subscription) error {
	query := `
		UPDATE subscriptions
		SET name = $3, category = $4, start_date = $5, billing_period = $6,
		    price = $7::numeric, card_id = $8, next_billing_date = $9,
		    manage_url = $10, updated_at = $11
		WHERE id = $1 AND owner_id = $2
		  AND EXISTS (SELECT 1 FROM cards WHERE id = $8 AND owner_id = $2)
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.OwnerID,
		s.Name,
		string(s.Category),
		s.StartDate,
		string(s.Period),
		s.Price.String(),
		s.CardID,
		s.NextBillingDate,
		s.ManageURL,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing subscription from a foreign card.
		if _, err := r.GetSubscription(ctx, s.OwnerID, s.ID); err != nil {
			return err
		}
		return ErrCardNotFound
	}

	return nil
}

// DeleteSubscription removes a subscription.
func (r *Repository) DeleteSubscription(ctx context.Context, ownerID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

func scanSubscription(row pgx.Row, s *model.Subscription) error {
	var (
		category string
		period   string
		price    string
	)

	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&category,
		&s.StartDate,
		&period,
		&price,
		&s.CardID,
		&s.NextBillingDate,
		&s.ManageURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	// Enum and date fields are kept as stored; consumers decide whether a
	// record is schedulable.
	s.Category = model.Category(category)
	s.Period = recurrence.Period(period)
	s.Price, err = decimal.NewFromString(price)
	if err != nil {
		return fmt.Errorf("parse price %q: %w", price, err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()

	return nil
}
