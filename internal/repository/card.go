package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/subtrackr/subtrackr/internal/model"
)

// Common errors for card repository operations.
var (
	ErrCardInUse   = errors.New("card is referenced by subscriptions")
	ErrDuplicateID = errors.New("record id already exists")
)

const cardColumns = `id, owner_id, card_name, bank, last4, expiration_date, created_at`

// ListCards returns the cards owned by ownerID, newest first.
func (r *Repository) ListCards(ctx context.Context, ownerID string) ([]model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		if err := scanCard(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}

	return cards, nil
}

// GetCard retrieves a card owned by ownerID.
func (r *Repository) GetCard(ctx context.Context, ownerID, id string) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 AND owner_id = $2`

	var c model.Card
	if err := scanCard(r.pool.QueryRow(ctx, query, id, ownerID), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return &c, nil
}

// CreateCard inserts a new card.
func (r *Repository) CreateCard(ctx context.Context, c *model.Card) error {
	query := `
		INSERT INTO cards (id, owner_id, card_name, bank, last4, expiration_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Bank,
		c.Last4,
		c.Expiration,
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// UpdateCard replaces a card's mutable fields.
func (r *Repository) UpdateCard(ctx context.Context, c *model.Card) error {
	query := `
		UPDATE cards
		SET card_name = $3, bank = $4, last4 = $5, expiration_date = $6
		WHERE id = $1 AND owner_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Bank,
		c.Last4,
		c.Expiration,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

// DeleteCard removes a card. Cards still charged by a subscription cannot be
// deleted.
func (r *Repository) DeleteCard(ctx context.Context, ownerID, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCardInUse
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

func scanCard(row pgx.Row, c *model.Card) error {
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Bank,
		&c.Last4,
		&c.Expiration,
		&c.CreatedAt,
	)
	if err != nil {
		return err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return nil
}
