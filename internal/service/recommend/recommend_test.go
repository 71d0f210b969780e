package recommend

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func categories(recs []models.Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Category)
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Run("no spend means no recommendations", func(t *testing.T) {
		require.Empty(t, Build("u1", models.SpendProfile{}))
		require.Empty(t, Build("u1", models.SpendProfile{TotalSpend: d("-5"), TxCount: 3}))
		require.Empty(t, Build("u1", models.SpendProfile{TotalSpend: d("100"), TxCount: 0}))
	})

	t.Run("high dining and low groceries trigger both rules", func(t *testing.T) {
		// 25 transactions, 200 total, restaurants 70 (35%), groceries 15 (7.5%)
		p := models.SpendProfile{
			TotalSpend:       d("200"),
			RestaurantsSpend: d("70"),
			GroceriesSpend:   d("15"),
			OtherSpend:       d("115"),
			TxCount:          25,
		}

		recs := Build("u1", p)

		cats := categories(recs)
		require.Contains(t, cats, models.RecommendationSpending)
		require.Contains(t, cats, models.RecommendationBudgetAllocation)
		// 25 transactions averaging $8 also trips the small-purchases rule.
		require.Contains(t, cats, models.RecommendationBehavior)
	})

	t.Run("many small purchases trigger behavior rule only", func(t *testing.T) {
		// 22 transactions, 150 total -> avg 6.82
		p := models.SpendProfile{
			TotalSpend:       d("150"),
			RestaurantsSpend: d("30"), // 20%
			GroceriesSpend:   d("60"), // 40%
			OtherSpend:       d("60"), // 40%, not above limit
			TxCount:          22,
		}

		recs := Build("u1", p)

		require.Equal(t, []string{models.RecommendationBehavior}, categories(recs))
		require.Contains(t, recs[0].Message, "22 transactions")
		require.Contains(t, recs[0].Message, "$6.82")
	})

	t.Run("high discretionary spend", func(t *testing.T) {
		p := models.SpendProfile{
			TotalSpend: d("100"),
			OtherSpend: d("45"),
			TxCount:    5,
		}

		recs := Build("u1", p)

		require.Equal(t, []string{models.RecommendationSpendingHygiene}, categories(recs))
		require.Contains(t, recs[0].Message, "45%")
	})

	t.Run("thresholds are strict", func(t *testing.T) {
		// Exactly 30% dining, 40% other, avg exactly 10: nothing fires
		p := models.SpendProfile{
			TotalSpend:       d("210"),
			RestaurantsSpend: d("63"), // 30%
			GroceriesSpend:   d("63"),
			OtherSpend:       d("84"), // 40%
			TxCount:          21,      // avg exactly 10
		}

		require.Empty(t, Build("u1", p))
	})

	t.Run("message interpolates whole percent", func(t *testing.T) {
		p := models.SpendProfile{
			TotalSpend:       d("200"),
			RestaurantsSpend: d("70"),
			GroceriesSpend:   d("15"),
			TxCount:          10,
		}

		recs := Build("u1", p)

		require.Len(t, recs, 2)
		require.Contains(t, recs[0].Message, "35%")
		require.Contains(t, recs[1].Message, "35%")
		require.Contains(t, recs[1].Message, "8%", "7.5%% rounds to 8%%")
	})
}
