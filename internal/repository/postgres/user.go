package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type UserRepo struct {
	DB DBTX
}

const ensureUser = `-- name: EnsureUser
INSERT INTO users (id)
VALUES ($1)
ON CONFLICT (id) DO NOTHING
`

func (r *UserRepo) EnsureUser(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, ensureUser, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const getUser = `-- name: GetUser
SELECT id, email, total_saved, created_at FROM users
WHERE id = $1
`

func (r *UserRepo) GetUser(ctx context.Context, userID string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUser, userID)
	user, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.User, error) {
		var u models.User
		err := row.Scan(&u.ID, &u.Email, &u.TotalSaved, &u.CreatedAt)
		return u, err
	})

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

// Atomic increment so concurrent pipeline runs for one user never lose
// updates. Upsert keeps the total_saved invariant even for users first seen
// through the event stream.
const addTotalSaved = `-- name: AddTotalSaved
INSERT INTO users (id, total_saved)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET total_saved = users.total_saved + EXCLUDED.total_saved
`

func (r *UserRepo) AddTotalSaved(ctx context.Context, userID string, amount decimal.Decimal) error {
	_, err := r.DB.Exec(ctx, addTotalSaved, userID, amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
