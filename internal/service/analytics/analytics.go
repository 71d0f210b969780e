// Package analytics serves read-only spend aggregations.
package analytics

import (
	"context"
	"fmt"

	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
)

type Service struct {
	txRepo repository.TransactionRepo
}

func NewService(txRepo repository.TransactionRepo) *Service {
	return &Service{txRepo: txRepo}
}

// SpendByCategory returns per-category totals for the period
// (this_month, this_week or all). Unknown periods read as all.
func (s *Service) SpendByCategory(ctx context.Context, userID string, period string) ([]models.CategorySpend, error) {
	totals, err := s.txRepo.CategoryTotals(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}

	return totals, nil
}
