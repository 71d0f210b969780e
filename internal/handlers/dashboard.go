package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
)

type RecommendationResponse struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

func recommendationToResponse(rec models.Recommendation) RecommendationResponse {
	return RecommendationResponse{
		Title:     rec.Title,
		Message:   rec.Message,
		Category:  rec.Category,
		CreatedAt: rec.CreatedAt,
	}
}

type OverviewResponse struct {
	TotalSaved           decimal.Decimal         `json:"total_saved"`
	Goals                []GoalResponse          `json:"goals"`
	LatestRecommendation *RecommendationResponse `json:"latest_recommendation"`
}

func handleDashboardOverview(storage repository.Storage, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := OverviewResponse{TotalSaved: decimal.Zero, Goals: []GoalResponse{}}

		user, err := storage.Users().GetUser(r.Context(), userID)
		switch {
		case err == nil:
			res.TotalSaved = user.TotalSaved
		case errors.Is(err, apperrors.ErrUserNotFound):
			// Nothing saved yet, overview still renders
		default:
			l.Error("Failed to load user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		goals, err := storage.Goals().ListGoals(r.Context(), userID)
		if err != nil {
			l.Error("Failed to list goals", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		for _, g := range goals {
			res.Goals = append(res.Goals, goalToResponse(g))
		}

		rec, found, err := storage.Recommendations().Latest(r.Context(), userID)
		if err != nil {
			l.Error("Failed to load latest recommendation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if found {
			recRes := recommendationToResponse(rec)
			res.LatestRecommendation = &recRes
		}

		render.JSON(w, res)
	})
}
