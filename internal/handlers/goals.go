package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type goalsService interface {
	CreateGoal(ctx context.Context, userID string, name string, target decimal.Decimal, deadline *time.Time) (models.Goal, error)
	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)
}

type userEnsurer interface {
	EnsureUser(ctx context.Context, userID string) error
}

type GoalResponse struct {
	GoalID        string          `json:"goal_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *time.Time      `json:"deadline,omitempty"`
}

func goalToResponse(g models.Goal) GoalResponse {
	return GoalResponse{
		GoalID:        g.ID.String(),
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Deadline:      g.Deadline,
	}
}

func handleListGoals(goals goalsService, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		list, err := goals.ListGoals(r.Context(), userID)
		if err != nil {
			l.Error("Failed to list goals", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]GoalResponse, 0, len(list))
		for _, g := range list {
			res = append(res, goalToResponse(g))
		}

		render.JSON(w, map[string]any{"goals": res})
	})
}

type CreateGoalRequest struct {
	Name         string           `json:"name" validate:"required"`
	TargetAmount *decimal.Decimal `json:"target_amount" validate:"required"`
	Deadline     *time.Time       `json:"deadline,omitempty"`
}

func handleCreateGoal(goals goalsService, users userEnsurer, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[CreateGoalRequest](w, r)
		if err != nil {
			return
		}

		if err := users.EnsureUser(r.Context(), userID); err != nil {
			l.Error("Failed to ensure user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		goal, err := goals.CreateGoal(r.Context(), userID, req.Name, *req.TargetAmount, req.Deadline)
		if err != nil {
			l.Error("Failed to create goal", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, goalToResponse(goal), http.StatusCreated)
	})
}
