package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SavingsLedgerEntry is an append-only record of one savings action applied
// to one transaction. Unique per (transaction_id, rule_name), enforced by
// the database so redelivered events cannot double-book.
type SavingsLedgerEntry struct {
	ID            uuid.UUID
	UserID        string
	TransactionID uuid.UUID
	RuleName      string
	Amount        decimal.Decimal
	CreatedAt     time.Time
}
