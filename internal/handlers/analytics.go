package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/repository"
	"github.com/pigmint/savings-pipeline/internal/service/analytics"
)

type CategorySpendResponse struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

func handleSpendCategories(svc *analytics.Service, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("period")
		if period == "" {
			period = repository.PeriodThisMonth
		}

		totals, err := svc.SpendByCategory(r.Context(), userID, period)
		if err != nil {
			l.Error("Failed to aggregate spend", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]CategorySpendResponse, 0, len(totals))
		for _, c := range totals {
			res = append(res, CategorySpendResponse{Category: c.Category, Total: c.Total})
		}

		render.JSON(w, map[string]any{
			"user_id":    userID,
			"period":     period,
			"categories": res,
		})
	})
}
