// Package ledger records savings actions and keeps the derived aggregates
// consistent with the append-only ledger.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
)

type Updater struct{}

func NewUpdater() *Updater {
	return &Updater{}
}

// Apply books the actions against one transaction and rolls the newly
// applied sum into users.total_saved and the user's first goal.
//
// Must run on a Storage bound to the same database transaction as the
// transaction insert: the caller's commit is the single durability
// boundary, so a crash anywhere in between leaves no partial state.
//
// Aggregates are incremented only by the sum of entries that actually
// landed. Redelivered actions hit the (transaction_id, rule_name) key,
// count as applied=false and therefore move no aggregate a second time.
func (u *Updater) Apply(ctx context.Context, storage repository.Storage, userID string, transactionID uuid.UUID, actions []models.SavingsAction) (decimal.Decimal, error) {
	applied := decimal.Zero

	for _, action := range actions {
		ok, err := storage.Ledger().InsertEntry(ctx, models.SavingsLedgerEntry{
			UserID:        userID,
			TransactionID: transactionID,
			RuleName:      action.RuleName,
			Amount:        action.Amount,
		})
		if err != nil {
			return decimal.Zero, fmt.Errorf("insert ledger entry: %w", err)
		}
		if ok {
			applied = applied.Add(action.Amount)
		}
	}

	if !applied.IsPositive() {
		return applied, nil
	}

	if err := storage.Users().AddTotalSaved(ctx, userID, applied); err != nil {
		return decimal.Zero, fmt.Errorf("update total saved: %w", err)
	}

	goal, err := storage.Goals().FirstGoal(ctx, userID)
	switch {
	case errors.Is(err, apperrors.ErrGoalNotFound):
		// No goal, savings still count toward the user total
		return applied, nil
	case err != nil:
		return decimal.Zero, fmt.Errorf("select goal: %w", err)
	}

	progressed, err := storage.Goals().AddProgress(ctx, goal.ID, transactionID, applied)
	if err != nil {
		return decimal.Zero, fmt.Errorf("add goal progress: %w", err)
	}
	if progressed {
		if err := storage.Goals().AddCurrentAmount(ctx, goal.ID, applied); err != nil {
			return decimal.Zero, fmt.Errorf("update goal amount: %w", err)
		}
	}

	return applied, nil
}
