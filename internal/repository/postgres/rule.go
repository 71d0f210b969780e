package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pigmint/savings-pipeline/internal/models"
)

type RuleRepo struct {
	DB DBTX
}

const listRules = `-- name: ListRules
SELECT name, is_active, config FROM rules
WHERE user_id = $1
`

func (r *RuleRepo) ListRules(ctx context.Context, userID string) (models.RuleSet, error) {
	rows, err := r.DB.Query(ctx, listRules, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	rules := models.RuleSet{}
	for rows.Next() {
		var name string
		var state models.RuleState
		if err := rows.Scan(&name, &state.IsActive, &state.Config); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		rules[name] = state
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rules, nil
}

const upsertRule = `-- name: UpsertRule
INSERT INTO rules (user_id, name, is_active, config, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (user_id, name)
DO UPDATE SET is_active = EXCLUDED.is_active, config = EXCLUDED.config, updated_at = now()
`

func (r *RuleRepo) UpsertRule(ctx context.Context, userID string, name string, isActive bool, config json.RawMessage) error {
	if len(config) == 0 {
		config = json.RawMessage(`{}`)
	}

	_, err := r.DB.Exec(ctx, upsertRule, userID, name, isActive, config)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
