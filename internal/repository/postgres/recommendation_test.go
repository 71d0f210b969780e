package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/testutil"
)

func TestRecommendationRepo(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepo := func(t *testing.T, fn func(repo *RecommendationRepo)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(&RecommendationRepo{DB: tx})
		})
	}

	rec := func(message string) models.Recommendation {
		return models.Recommendation{
			UserID:   "demo_user",
			Title:    "Dining above recommended level",
			Message:  message,
			Category: models.RecommendationSpending,
		}
	}

	t.Run("Insert assigns id and created_at", func(t *testing.T) {
		withRepo(t, func(repo *RecommendationRepo) {
			got, err := repo.Insert(t.Context(), rec("first"))

			require.NoError(t, err)
			require.NotZero(t, got.ID)
			require.False(t, got.CreatedAt.IsZero())
		})
	})

	t.Run("identical recommendations append", func(t *testing.T) {
		withRepo(t, func(repo *RecommendationRepo) {
			a, err := repo.Insert(t.Context(), rec("same"))
			require.NoError(t, err)
			b, err := repo.Insert(t.Context(), rec("same"))
			require.NoError(t, err)

			require.NotEqual(t, a.ID, b.ID, "recommendations are an additive log")
		})
	})

	t.Run("Latest", func(t *testing.T) {
		t.Run("returns the newest", func(t *testing.T) {
			withRepo(t, func(repo *RecommendationRepo) {
				_, err := repo.Insert(t.Context(), rec("older"))
				require.NoError(t, err)
				newest, err := repo.Insert(t.Context(), rec("newest"))
				require.NoError(t, err)

				got, found, err := repo.Latest(t.Context(), "demo_user")

				require.NoError(t, err)
				require.True(t, found)
				require.Equal(t, newest.ID, got.ID)
			})
		})

		t.Run("none exists", func(t *testing.T) {
			withRepo(t, func(repo *RecommendationRepo) {
				_, found, err := repo.Latest(t.Context(), "nobody")
				require.NoError(t, err)
				require.False(t, found)
			})
		})
	})
}
