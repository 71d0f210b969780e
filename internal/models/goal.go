package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goal is a user savings goal. CurrentAmount is derived: it must equal the
// sum of the goal's progress entries.
type Goal struct {
	ID            uuid.UUID
	UserID        string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
	CreatedAt     time.Time
}

// GoalProgress is an append-only record of savings applied to a goal from
// one transaction. At most one entry per transaction.
type GoalProgress struct {
	ID            uuid.UUID
	GoalID        uuid.UUID
	TransactionID uuid.UUID
	AmountAdded   decimal.Decimal
	CreatedAt     time.Time
}
