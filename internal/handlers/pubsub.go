package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/handlers/render"
	"github.com/pigmint/savings-pipeline/internal/logger"
)

type eventProcessor interface {
	Process(ctx context.Context, raw []byte) error
}

// pushEnvelope is the push-subscription wrapper around the event payload.
type pushEnvelope struct {
	Message pushMessage `json:"message" validate:"required"`
}

type pushMessage struct {
	Data      string `json:"data" validate:"required"`
	MessageID string `json:"messageId,omitempty"`
}

// handlePushTransaction maps the pipeline's error contract onto push
// delivery semantics: 2xx acknowledges, anything else redelivers.
//
// Malformed envelopes and undecodable events are acknowledged so the bus
// does not retry them forever, but logged as errors for observability.
// Every other failure returns 500 to force redelivery of the whole event.
func handlePushTransaction(processor eventProcessor, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope, err := render.BindAndValidate[pushEnvelope](w, r)
		if err != nil {
			// BindAndValidate already wrote the 400. Non-2xx means retry,
			// which is acceptable here: an envelope this broken never came
			// from the real bus.
			l.Error("Invalid push request", "error", err)
			return
		}

		raw, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			l.Error("Dropping push message with corrupt data", "error", err, "message_id", envelope.Message.MessageID)
			render.JSONWithStatus(w, struct{}{}, http.StatusOK)
			return
		}

		err = processor.Process(r.Context(), raw)
		switch {
		case err == nil:
			render.JSONWithStatus(w, struct{}{}, http.StatusOK)
		case errors.Is(err, apperrors.ErrEventDecode):
			// Terminal for this payload: ack it away rather than retry forever
			l.Error("Dropping malformed transaction event", "error", err, "message_id", envelope.Message.MessageID)
			render.JSONWithStatus(w, struct{}{}, http.StatusOK)
		default:
			l.Error("Transaction processing failed, requesting redelivery", "error", err, "message_id", envelope.Message.MessageID)
			render.ServiceError(w, "Event processing failed", http.StatusInternalServerError)
		}
	})
}
