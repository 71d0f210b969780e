package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pigmint/savings-pipeline/internal/models"
)

type RecommendationRepo struct {
	DB DBTX
}

const insertRecommendation = `-- name: InsertRecommendation
INSERT INTO recommendations (id, user_id, title, message, category)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, title, message, category, created_at
`

func (r *RecommendationRepo) Insert(ctx context.Context, rec models.Recommendation) (models.Recommendation, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	rows, _ := r.DB.Query(ctx, insertRecommendation, rec.ID, rec.UserID, rec.Title, rec.Message, rec.Category)
	rec, err := pgx.CollectOneRow(rows, rowToRecommendation)
	if err != nil {
		return rec, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

const latestRecommendation = `-- name: LatestRecommendation
SELECT id, user_id, title, message, category, created_at
FROM recommendations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (r *RecommendationRepo) Latest(ctx context.Context, userID string) (models.Recommendation, bool, error) {
	rows, _ := r.DB.Query(ctx, latestRecommendation, userID)
	rec, err := pgx.CollectOneRow(rows, rowToRecommendation)

	switch {
	case err == nil:
		return rec, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		return rec, false, nil
	default:
		return rec, false, fmt.Errorf("db error: %w", err)
	}
}

func rowToRecommendation(row pgx.CollectableRow) (models.Recommendation, error) {
	var rec models.Recommendation
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Message, &rec.Category, &rec.CreatedAt)
	return rec, err
}
