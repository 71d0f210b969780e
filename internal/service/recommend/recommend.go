// Package recommend derives spend recommendations from the user's current
// calendar month profile.
package recommend

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
)

// Threshold constants for the four recommendation rules.
var (
	diningShareLimit    = decimal.NewFromFloat(0.30)
	groceriesShareFloor = decimal.NewFromFloat(0.10)
	otherShareLimit     = decimal.NewFromFloat(0.40)
	smallAvgLimit       = decimal.NewFromFloat(10.00)
)

const smallCountLimit = 20

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate evaluates the threshold rules over the user's current month
// profile and appends every matching recommendation. Reads go through the
// given storage so the caller controls the transaction boundary and the
// profile includes the just-inserted transaction.
//
// Recommendations are an additive log: matches are never deduplicated
// against earlier runs, a redelivered qualifying event appends again.
func (g *Generator) Generate(ctx context.Context, storage repository.Storage, userID string) ([]models.Recommendation, error) {
	profile, err := storage.Transactions().MonthlyProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load spend profile: %w", err)
	}

	recs := Build(userID, profile)
	for i, rec := range recs {
		inserted, err := storage.Recommendations().Insert(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("insert recommendation: %w", err)
		}
		recs[i] = inserted
	}

	return recs, nil
}

// Build is the pure rule evaluation: profile in, zero or more
// recommendations out. The four rules are independent and non-exclusive.
func Build(userID string, p models.SpendProfile) []models.Recommendation {
	if !p.TotalSpend.IsPositive() || p.TxCount <= 0 {
		return nil
	}

	restaurantsShare := p.RestaurantsSpend.Div(p.TotalSpend)
	groceriesShare := p.GroceriesSpend.Div(p.TotalSpend)
	otherShare := p.OtherSpend.Div(p.TotalSpend)
	avgAmount := p.TotalSpend.Div(decimal.NewFromInt(int64(p.TxCount)))

	var recs []models.Recommendation
	add := func(title, message, category string) {
		recs = append(recs, models.Recommendation{
			UserID:   userID,
			Title:    title,
			Message:  message,
			Category: category,
		})
	}

	if restaurantsShare.GreaterThan(diningShareLimit) {
		add(
			"Dining above recommended level",
			fmt.Sprintf("Your Restaurants spending is %s of total this month. Consider lowering your dining budget.",
				percent(restaurantsShare)),
			models.RecommendationSpending,
		)
	}

	if restaurantsShare.GreaterThan(diningShareLimit) && groceriesShare.LessThan(groceriesShareFloor) {
		add(
			"Consider shifting spend to groceries",
			fmt.Sprintf("Restaurants make up %s of your spending this month, while Groceries are only %s. Cooking at home a bit more could free up extra savings.",
				percent(restaurantsShare), percent(groceriesShare)),
			models.RecommendationBudgetAllocation,
		)
	}

	if otherShare.GreaterThan(otherShareLimit) {
		add(
			"High discretionary / uncategorized spending",
			fmt.Sprintf("'Other' category spending is %s of your total this month. Review these purchases to identify subscriptions or impulse buys you can cut back on.",
				percent(otherShare)),
			models.RecommendationSpendingHygiene,
		)
	}

	if p.TxCount > smallCountLimit && avgAmount.LessThan(smallAvgLimit) {
		add(
			"Many small purchases detected",
			fmt.Sprintf("You've made %d transactions this month with an average size of $%s. Grouping small purchases or reducing impulse buys could unlock additional savings.",
				p.TxCount, avgAmount.StringFixed(2)),
			models.RecommendationBehavior,
		)
	}

	return recs
}

// percent renders a share as a whole-number percentage, e.g. 0.35 -> "35%".
func percent(share decimal.Decimal) string {
	return share.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}
