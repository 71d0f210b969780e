package handlers

import (
	"context"
	"net/http"

	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type latestRecommendationReader interface {
	Latest(ctx context.Context, userID string) (models.Recommendation, bool, error)
}

func handleLatestRecommendation(recs latestRecommendationReader, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec, found, err := recs.Latest(r.Context(), userID)
		if err != nil {
			l.Error("Failed to load latest recommendation", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if !found {
			render.JSON(w, map[string]any{"recommendation": nil})
			return
		}

		render.JSON(w, map[string]any{"recommendation": recommendationToResponse(rec)})
	})
}
