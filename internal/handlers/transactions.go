package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

const defaultRecentLimit = 20

type recentTransactionsReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.TransactionWithSaved, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

type TransactionResponse struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Merchant      string          `json:"merchant"`
	Category      string          `json:"category"`
	Timestamp     time.Time       `json:"timestamp"`
	SavedTotal    decimal.Decimal `json:"saved_total"`
}

func handleRecentTransactions(txs recentTransactionsReader, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := defaultRecentLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed <= 0 {
				render.ServiceError(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		recent, err := txs.ListRecent(r.Context(), userID, limit)
		if err != nil {
			l.Error("Failed to list recent transactions", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		res := make([]TransactionResponse, 0, len(recent))
		for _, t := range recent {
			res = append(res, TransactionResponse{
				TransactionID: t.ID.String(),
				Amount:        t.Amount,
				Currency:      t.Currency,
				Merchant:      t.Merchant,
				Category:      t.CategoryNormalized,
				Timestamp:     t.Timestamp,
				SavedTotal:    t.SavedTotal,
			})
		}

		render.JSON(w, map[string]any{"transactions": res})
	})
}

type SimulateRequest struct {
	Amount    *decimal.Decimal `json:"amount" validate:"required"`
	Merchant  string           `json:"merchant,omitempty"`
	Category  string           `json:"category,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
}

// handleSimulateTransaction builds a normalized transaction event and
// publishes it to the inbound topic, same as the real ingest would.
func handleSimulateTransaction(publisher eventPublisher, topic string, userID string, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[SimulateRequest](w, r)
		if err != nil {
			return
		}

		ts := req.Timestamp
		if ts == "" {
			ts = time.Now().UTC().Format(time.RFC3339)
		}

		// Fresh event id per request: two identical purchases in the same
		// second must stay two transactions, only true redeliveries may
		// collapse onto one id downstream.
		event := models.TransactionEvent{
			ID:        uuid.NewString(),
			UserID:    userID,
			Amount:    req.Amount,
			Currency:  "USD",
			Merchant:  req.Merchant,
			Category:  req.Category,
			Timestamp: ts,
			Source:    "simulator",
		}

		data, err := json.Marshal(event)
		if err != nil {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := publisher.Publish(r.Context(), topic, data); err != nil {
			l.Error("Failed to publish transaction event", "error", err)
			render.ServiceError(w, "Failed to queue transaction", http.StatusInternalServerError)
			return
		}

		l.Info("Transaction event queued", "user_id", userID, "amount", req.Amount)
		render.JSON(w, map[string]string{"status": "queued"})
	})
}
