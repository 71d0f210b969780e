package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Known savings rule names. The set is fixed, rules are not user-programmable.
const (
	RuleRoundup = "roundup"
)

// Rule is one named per-user savings rule configuration.
type Rule struct {
	UserID    string
	Name      string
	IsActive  bool
	Config    json.RawMessage
	UpdatedAt time.Time
}

// RuleState is the cached shape of a rule: activity flag plus opaque config.
type RuleState struct {
	IsActive bool            `json:"is_active"`
	Config   json.RawMessage `json:"config"`
}

// RuleSet is a full snapshot of a user's rules keyed by rule name.
// Cached as one unit so invalidation stays atomic.
type RuleSet map[string]RuleState

// SavingsAction is the outcome of one rule applied to one transaction.
type SavingsAction struct {
	RuleName string
	Amount   decimal.Decimal
}
