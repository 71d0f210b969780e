package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/testutil"
)

func TestLedgerRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepos := func(t *testing.T, fn func(txs *TransactionRepo, ledger *LedgerRepo)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(&TransactionRepo{DB: tx}, &LedgerRepo{DB: tx})
		})
	}

	entry := func(tx models.Transaction, amount string) models.SavingsLedgerEntry {
		return models.SavingsLedgerEntry{
			UserID:        tx.UserID,
			TransactionID: tx.ID,
			RuleName:      models.RuleRoundup,
			Amount:        decimal.RequireFromString(amount),
		}
	}

	t.Run("InsertEntry", func(t *testing.T) {
		t.Run("first insert applies", func(t *testing.T) {
			withRepos(t, func(txs *TransactionRepo, ledger *LedgerRepo) {
				tx := testTransaction("demo_user", "19.40", time.Now())
				_, _, err := txs.CreateTransaction(t.Context(), tx)
				require.NoError(t, err)

				applied, err := ledger.InsertEntry(t.Context(), entry(tx, "0.60"))

				require.NoError(t, err)
				require.True(t, applied)
			})
		})

		t.Run("retried insert is a no-op", func(t *testing.T) {
			withRepos(t, func(txs *TransactionRepo, ledger *LedgerRepo) {
				tx := testTransaction("demo_user", "19.40", time.Now())
				_, _, err := txs.CreateTransaction(t.Context(), tx)
				require.NoError(t, err)

				applied, err := ledger.InsertEntry(t.Context(), entry(tx, "0.60"))
				require.NoError(t, err)
				require.True(t, applied)

				applied, err = ledger.InsertEntry(t.Context(), entry(tx, "0.60"))
				require.NoError(t, err)
				require.False(t, applied, "same (transaction, rule) must not book twice")

				sum, err := ledger.SumForUser(t.Context(), "demo_user")
				require.NoError(t, err)
				require.True(t, sum.Equal(decimal.RequireFromString("0.60")))
			})
		})
	})

	t.Run("SumForUser", func(t *testing.T) {
		t.Run("zero without entries", func(t *testing.T) {
			withRepos(t, func(_ *TransactionRepo, ledger *LedgerRepo) {
				sum, err := ledger.SumForUser(t.Context(), "nobody")
				require.NoError(t, err)
				require.True(t, sum.IsZero())
			})
		})

		t.Run("sums only the user's entries", func(t *testing.T) {
			withRepos(t, func(txs *TransactionRepo, ledger *LedgerRepo) {
				mine := testTransaction("demo_user", "19.40", time.Now())
				mine2 := testTransaction("demo_user", "4.10", time.Now())
				theirs := testTransaction("other_user", "7.25", time.Now())

				for _, tx := range []models.Transaction{mine, mine2, theirs} {
					_, _, err := txs.CreateTransaction(t.Context(), tx)
					require.NoError(t, err)
				}

				for _, e := range []models.SavingsLedgerEntry{
					entry(mine, "0.60"),
					entry(mine2, "0.90"),
					entry(theirs, "0.75"),
				} {
					applied, err := ledger.InsertEntry(t.Context(), e)
					require.NoError(t, err)
					require.True(t, applied)
				}

				sum, err := ledger.SumForUser(t.Context(), "demo_user")
				require.NoError(t, err)
				require.True(t, sum.Equal(decimal.RequireFromString("1.50")))
			})
		})
	})
}
