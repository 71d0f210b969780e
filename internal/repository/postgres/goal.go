package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type GoalRepo struct {
	DB DBTX
}

const createGoal = `-- name: CreateGoal
INSERT INTO goals (id, user_id, name, target_amount, current_amount, deadline)
VALUES ($1, $2, $3, $4, 0, $5)
RETURNING id, user_id, name, target_amount, current_amount, deadline, created_at
`

func (r *GoalRepo) CreateGoal(ctx context.Context, userID string, name string, target decimal.Decimal, deadline *time.Time) (models.Goal, error) {
	rows, _ := r.DB.Query(ctx, createGoal, uuid.New(), userID, name, target, deadline)
	goal, err := pgx.CollectOneRow(rows, rowToGoal)
	if err != nil {
		return goal, fmt.Errorf("db error: %w", err)
	}

	return goal, nil
}

const listGoals = `-- name: ListGoals
SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
FROM goals
WHERE user_id = $1
ORDER BY created_at ASC
`

func (r *GoalRepo) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	rows, _ := r.DB.Query(ctx, listGoals, userID)
	goals, err := pgx.CollectRows(rows, rowToGoal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return goals, nil
}

// First-goal-wins: all savings from a transaction land on the earliest
// created goal. Known product limitation, no goal splitting.
const firstGoal = `-- name: FirstGoal
SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
FROM goals
WHERE user_id = $1
ORDER BY created_at ASC
LIMIT 1
`

func (r *GoalRepo) FirstGoal(ctx context.Context, userID string) (models.Goal, error) {
	rows, _ := r.DB.Query(ctx, firstGoal, userID)
	goal, err := pgx.CollectOneRow(rows, rowToGoal)

	switch {
	case err == nil:
		return goal, nil
	case errors.Is(err, pgx.ErrNoRows):
		return goal, apperrors.ErrGoalNotFound
	default:
		return goal, fmt.Errorf("db error: %w", err)
	}
}

// Unique transaction_id makes retried progress appends a no-op.
const addProgress = `-- name: AddProgress
INSERT INTO goal_progress (goal_id, transaction_id, amount_added)
VALUES ($1, $2, $3)
ON CONFLICT (transaction_id) DO NOTHING
`

func (r *GoalRepo) AddProgress(ctx context.Context, goalID uuid.UUID, transactionID uuid.UUID, amount decimal.Decimal) (bool, error) {
	tag, err := r.DB.Exec(ctx, addProgress, goalID, transactionID, amount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return false, nil
		}

		return false, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

const addCurrentAmount = `-- name: AddCurrentAmount
UPDATE goals
SET current_amount = current_amount + $2
WHERE id = $1
`

func (r *GoalRepo) AddCurrentAmount(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal) error {
	_, err := r.DB.Exec(ctx, addCurrentAmount, goalID, amount)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func rowToGoal(row pgx.CollectableRow) (models.Goal, error) {
	var g models.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt)
	return g, err
}
