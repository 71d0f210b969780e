package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Normalized spend categories. Every transaction maps to exactly one.
const (
	CategoryRestaurants = "Restaurants"
	CategoryGroceries   = "Groceries"
	CategoryOther       = "Other"
)

// Transaction is immutable once recorded. Positive amount means spend.
type Transaction struct {
	ID                 uuid.UUID
	UserID             string
	Amount             decimal.Decimal
	Currency           string
	Merchant           string
	CategoryRaw        string
	CategoryNormalized string
	Timestamp          time.Time
	Source             string
	CreatedAt          time.Time
}

// TransactionWithSaved is a transaction joined with the total savings
// captured from it.
type TransactionWithSaved struct {
	Transaction
	SavedTotal decimal.Decimal
}

// SpendProfile holds the current calendar month aggregates for one user.
type SpendProfile struct {
	TotalSpend       decimal.Decimal
	RestaurantsSpend decimal.Decimal
	GroceriesSpend   decimal.Decimal
	OtherSpend       decimal.Decimal
	TxCount          int
}

// CategorySpend is one row of the per-category spend breakdown.
type CategorySpend struct {
	Category string
	Total    decimal.Decimal
}
