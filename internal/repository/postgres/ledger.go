package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

// The unique (transaction_id, rule_name) key is the sole double-count guard
// under redelivery. ON CONFLICT DO NOTHING turns the violation into a clean
// applied=false, which callers treat as success.
const insertLedgerEntry = `-- name: InsertLedgerEntry
INSERT INTO savings_ledger (user_id, transaction_id, rule_name, amount)
VALUES ($1, $2, $3, $4)
ON CONFLICT (transaction_id, rule_name) DO NOTHING
`

func (r *LedgerRepo) InsertEntry(ctx context.Context, entry models.SavingsLedgerEntry) (bool, error) {
	tag, err := r.DB.Exec(ctx, insertLedgerEntry, entry.UserID, entry.TransactionID, entry.RuleName, entry.Amount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Concurrent redelivery raced past ON CONFLICT, same outcome
			return false, nil
		}

		return false, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

const sumLedgerForUser = `-- name: SumLedgerForUser
SELECT COALESCE(SUM(amount), 0) FROM savings_ledger
WHERE user_id = $1
`

func (r *LedgerRepo) SumForUser(ctx context.Context, userID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.DB.QueryRow(ctx, sumLedgerForUser, userID).Scan(&sum)
	if err != nil {
		return sum, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}
