package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type ruleReader interface {
	ActiveRules(ctx context.Context, userID string) (models.RuleSet, error)
}

type ruleWriter interface {
	UpsertRule(ctx context.Context, userID string, name string, isActive bool, config json.RawMessage) error
}

type ruleInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

func handleListRules(store ruleReader, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rules, err := store.ActiveRules(r.Context(), userID)
		if err != nil {
			l.Error("Failed to load rules", "error", err)
			render.ServiceError(w, "Rules temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, map[string]any{"rules": rules})
	})
}

type ToggleRuleRequest struct {
	Enabled *bool           `json:"enabled" validate:"required"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// handleToggleRule upserts a rule and evicts the user's cached snapshot.
// Until the eviction lands (or the TTL expires) in-flight transactions may
// still see the previous snapshot: that staleness window is by contract.
func handleToggleRule(rules ruleWriter, users userEnsurer, cache ruleInvalidator, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if name == "" {
			render.ServiceError(w, "Rule name is required", http.StatusBadRequest)
			return
		}

		req, err := render.BindAndValidate[ToggleRuleRequest](w, r)
		if err != nil {
			return
		}

		if err := users.EnsureUser(r.Context(), userID); err != nil {
			l.Error("Failed to ensure user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := rules.UpsertRule(r.Context(), userID, name, *req.Enabled, req.Config); err != nil {
			l.Error("Failed to upsert rule", "error", err, "rule", name)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := cache.Invalidate(r.Context(), userID); err != nil {
			// Rule is persisted, the stale snapshot ages out by TTL
			l.Warn("Failed to invalidate rule cache", "error", err, "user_id", userID)
		}

		render.JSON(w, map[string]any{"rule": name, "enabled": *req.Enabled})
	})
}
