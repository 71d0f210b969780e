package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
)

type TransactionRepo struct {
	DB DBTX
}

// Insert transaction with the id precomputed from the event.
// If a row with the id exists already return it as is: redelivered events
// must not create a second transaction.
const createTransaction = `-- name: CreateTransaction
WITH insert_tx AS (
	INSERT INTO transactions (id, user_id, amount, currency, merchant, category_raw, category_normalized, "timestamp", source, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
	ON CONFLICT (id) DO NOTHING
	RETURNING id, user_id, amount, currency, merchant, category_raw, category_normalized, "timestamp", source, created_at, true AS created
)
SELECT * FROM insert_tx
UNION ALL
SELECT id, user_id, amount, currency, merchant, category_raw, category_normalized, "timestamp", source, created_at, false AS created
FROM transactions
WHERE id = $1 AND NOT EXISTS (SELECT 1 FROM insert_tx)
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, bool, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		t.ID, t.UserID, t.Amount, t.Currency, t.Merchant, t.CategoryRaw, t.CategoryNormalized, t.Timestamp, t.Source)

	var created bool
	tx, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var t models.Transaction
		err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Merchant,
			&t.CategoryRaw, &t.CategoryNormalized, &t.Timestamp, &t.Source, &t.CreatedAt, &created)
		return t, err
	})
	if err != nil {
		return tx, false, fmt.Errorf("db error: %w", err)
	}

	return tx, created, nil
}

const listRecent = `-- name: ListRecent
SELECT t.id, t.user_id, t.amount, t.currency, t.merchant, t.category_raw, t.category_normalized,
       t."timestamp", t.source, t.created_at,
       COALESCE(SUM(s.amount), 0) AS saved_total
FROM transactions t
LEFT JOIN savings_ledger s ON s.transaction_id = t.id
WHERE t.user_id = $1
GROUP BY t.id
ORDER BY t."timestamp" DESC
LIMIT $2
`

func (r *TransactionRepo) ListRecent(ctx context.Context, userID string, limit int) ([]models.TransactionWithSaved, error) {
	rows, _ := r.DB.Query(ctx, listRecent, userID, limit)
	txs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.TransactionWithSaved, error) {
		var t models.TransactionWithSaved
		err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.Currency, &t.Merchant,
			&t.CategoryRaw, &t.CategoryNormalized, &t.Timestamp, &t.Source, &t.CreatedAt, &t.SavedTotal)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return txs, nil
}

// Aggregates over the calendar month containing the database's "now".
const monthlyProfile = `-- name: MonthlyProfile
SELECT
	COALESCE(SUM(amount), 0)                                                            AS total_spend,
	COALESCE(SUM(CASE WHEN category_normalized = 'Restaurants' THEN amount ELSE 0 END), 0) AS restaurants_spend,
	COALESCE(SUM(CASE WHEN category_normalized = 'Groceries' THEN amount ELSE 0 END), 0)   AS groceries_spend,
	COALESCE(SUM(CASE WHEN category_normalized = 'Other' THEN amount ELSE 0 END), 0)       AS other_spend,
	COUNT(*)::int                                                                       AS tx_count
FROM transactions
WHERE user_id = $1
  AND date_trunc('month', "timestamp") = date_trunc('month', now())
`

func (r *TransactionRepo) MonthlyProfile(ctx context.Context, userID string) (models.SpendProfile, error) {
	var p models.SpendProfile
	err := r.DB.QueryRow(ctx, monthlyProfile, userID).Scan(
		&p.TotalSpend, &p.RestaurantsSpend, &p.GroceriesSpend, &p.OtherSpend, &p.TxCount)
	if err != nil {
		return p, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

const categoryTotals = `-- name: CategoryTotals
SELECT category_normalized, COALESCE(SUM(amount), 0) AS total
FROM transactions
WHERE user_id = $1
  AND ($2::text != 'this_month' OR date_trunc('month', "timestamp") = date_trunc('month', now()))
  AND ($2::text != 'this_week' OR date_trunc('week', "timestamp") = date_trunc('week', now()))
GROUP BY category_normalized
ORDER BY category_normalized
`

func (r *TransactionRepo) CategoryTotals(ctx context.Context, userID string, period string) ([]models.CategorySpend, error) {
	switch period {
	case repository.PeriodThisMonth, repository.PeriodThisWeek:
	default:
		period = repository.PeriodAll
	}

	rows, _ := r.DB.Query(ctx, categoryTotals, userID, period)
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CategorySpend, error) {
		var c models.CategorySpend
		err := row.Scan(&c.Category, &c.Total)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return totals, nil
}
