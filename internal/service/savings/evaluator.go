// Package savings evaluates active rules against a transaction amount.
//
// Every rule is an independent pure function from (amount, config) to zero
// or one action. Adding a rule means adding one entry to the registry.
package savings

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/models"
)

// ruleFunc computes the savings amount for one rule. A zero or negative
// result means the rule contributes nothing.
type ruleFunc func(amount decimal.Decimal, config json.RawMessage) decimal.Decimal

var registry = map[string]ruleFunc{
	models.RuleRoundup: roundup,
}

// Evaluate returns actions for every registered active rule, ordered by
// rule name so results are deterministic. Unknown and inactive rules
// contribute nothing.
func Evaluate(amount decimal.Decimal, rules models.RuleSet) []models.SavingsAction {
	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	var actions []models.SavingsAction
	for _, name := range names {
		state := rules[name]
		fn, known := registry[name]
		if !known || !state.IsActive {
			continue
		}

		saved := fn(amount, state.Config)
		if saved.IsPositive() {
			actions = append(actions, models.SavingsAction{RuleName: name, Amount: saved})
		}
	}

	return actions
}

// roundup captures the gap between the amount and its ceiling to the next
// whole currency unit, half-up rounded to cents.
func roundup(amount decimal.Decimal, _ json.RawMessage) decimal.Decimal {
	return amount.Ceil().Sub(amount).Round(2)
}
