package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
)

// Namespace for deriving deterministic transaction ids from inbound events.
// A redelivered copy of the same event must map to the same transaction id,
// otherwise the storage-level idempotency keys have nothing to key on.
var transactionNamespace = uuid.MustParse("8a9f5c1e-2b74-4f03-9a66-d1c0b5e4a7f2")

// TransactionEvent is the inbound message bus payload.
// Only user_id and amount are required, everything else has defaults.
type TransactionEvent struct {
	ID        string           `json:"id,omitempty"`
	UserID    string           `json:"user_id"`
	Amount    *decimal.Decimal `json:"amount"`
	Currency  string           `json:"currency,omitempty"`
	Merchant  string           `json:"merchant,omitempty"`
	Category  string           `json:"category,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Source    string           `json:"source,omitempty"`
}

// ParseTransactionEvent decodes a raw event payload into a Transaction.
// Malformed JSON or missing user_id/amount is a terminal decode failure:
// the caller must acknowledge and drop, not retry.
func ParseTransactionEvent(raw []byte, now time.Time) (Transaction, error) {
	var e TransactionEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return Transaction{}, fmt.Errorf("%w: %v", apperrors.ErrEventDecode, err)
	}

	if e.UserID == "" {
		return Transaction{}, fmt.Errorf("%w: missing user_id", apperrors.ErrEventDecode)
	}
	if e.Amount == nil {
		return Transaction{}, fmt.Errorf("%w: missing amount", apperrors.ErrEventDecode)
	}

	t := Transaction{
		ID:          eventTransactionID(e, raw),
		UserID:      e.UserID,
		Amount:      *e.Amount,
		Currency:    e.Currency,
		Merchant:    e.Merchant,
		CategoryRaw: e.Category,
		Timestamp:   now,
		Source:      e.Source,
	}

	if t.Currency == "" {
		t.Currency = "USD"
	}
	if t.Merchant == "" {
		t.Merchant = "Unknown"
	}
	if t.CategoryRaw == "" {
		t.CategoryRaw = "Uncategorized"
	}
	if t.Source == "" {
		t.Source = "simulator"
	}

	// Event timestamp is best effort: fall back to processing time if the
	// field is absent or unparseable.
	if e.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
			t.Timestamp = ts
		}
	}

	return t, nil
}

// eventTransactionID derives a stable id for the event. Events that carry
// their own id hash on (user_id, id); otherwise the raw payload bytes are
// hashed, which is identical across redeliveries of the same message.
func eventTransactionID(e TransactionEvent, raw []byte) uuid.UUID {
	if e.ID != "" {
		return uuid.NewSHA1(transactionNamespace, []byte(e.UserID+":"+e.ID))
	}
	return uuid.NewSHA1(transactionNamespace, raw)
}
