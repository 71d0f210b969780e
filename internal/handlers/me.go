package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

const demoEmail = "demo@pigmint.local"

type userReader interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
}

type MeResponse struct {
	UserID     string          `json:"user_id"`
	Email      string          `json:"email"`
	TotalSaved decimal.Decimal `json:"total_saved"`
}

// handleMe reports the demo identity and its running savings total. A user
// the event stream has not seen yet still renders, with zero saved.
func handleMe(users userReader, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := MeResponse{UserID: userID, Email: demoEmail, TotalSaved: decimal.Zero}

		user, err := users.GetUser(r.Context(), userID)
		switch {
		case err == nil:
			res.TotalSaved = user.TotalSaved
			if user.Email != "" {
				res.Email = user.Email
			}
		case errors.Is(err, apperrors.ErrUserNotFound):
		default:
			l.Error("Failed to load user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, res)
	})
}
