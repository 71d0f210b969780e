package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation categories.
const (
	RecommendationSpending         = "spending"
	RecommendationBudgetAllocation = "budget_allocation"
	RecommendationSpendingHygiene  = "spending_hygiene"
	RecommendationBehavior         = "behavior"
)

// Recommendation is an additive log entry. Repeated identical
// recommendations are allowed and never deduplicated.
type Recommendation struct {
	ID        uuid.UUID
	UserID    string
	Title     string
	Message   string
	Category  string
	CreatedAt time.Time
}
