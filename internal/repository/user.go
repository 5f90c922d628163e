package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/subtrackr/subtrackr/internal/model"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

const userColumns = `id, email, display_name, notifications_enabled, updated_at`

// ListUsers returns every user preference record.
func (r *Repository) ListUsers(ctx context.Context) ([]model.UserPreference, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.UserPreference
	for rows.Next() {
		var u model.UserPreference
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUserPreference retrieves one user's preferences.
func (r *Repository) GetUserPreference(ctx context.Context, userID string) (*model.UserPreference, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u model.UserPreference
	if err := scanUser(r.pool.QueryRow(ctx, query, userID), &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// UpsertUserPreference creates or updates a user's profile. A nil
// NotificationsEnabled keeps whatever was stored before.
func (r *Repository) UpsertUserPreference(ctx context.Context, pref *model.UserPreference) (*model.UserPreference, error) {
	query := `
		INSERT INTO users (id, email, display_name, notifications_enabled, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			email = CASE WHEN EXCLUDED.email = '' THEN users.email ELSE EXCLUDED.email END,
			display_name = CASE WHEN EXCLUDED.display_name = '' THEN users.display_name ELSE EXCLUDED.display_name END,
			notifications_enabled = COALESCE(EXCLUDED.notifications_enabled, users.notifications_enabled),
			updated_at = NOW()
		RETURNING ` + userColumns

	var u model.UserPreference
	err := scanUser(r.pool.QueryRow(ctx, query,
		pref.UserID,
		pref.Email,
		pref.DisplayName,
		pref.NotificationsEnabled,
	), &u)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return &u, nil
}

func scanUser(row pgx.Row, u *model.UserPreference) error {
	return row.Scan(
		&u.UserID,
		&u.Email,
		&u.DisplayName,
		&u.NotificationsEnabled,
		&u.UpdatedAt,
	)
}
