package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User aggregate state. TotalSaved is derived: it must equal the sum of the
// user's savings ledger entries.
type User struct {
	ID         string
	Email      string
	TotalSaved decimal.Decimal
	CreatedAt  time.Time
}
