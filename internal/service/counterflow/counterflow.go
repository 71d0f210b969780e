// Package counterflow is the legacy counter-based consumer over the same
// inbound transaction events.
//
// Instead of the relational ledger it keeps raw running counters per user
// in the cache store and emits a classification event downstream. It is an
// independent pipeline variant, deliberately not reconciled with the
// relational model.
package counterflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

// Classification statuses, in increasing severity.
const (
	StatusApproved = "APPROVED"
	StatusReview   = "REVIEW"
	StatusAlert    = "ALERT"
)

// Classification thresholds.
var highValueLimit = decimal.NewFromInt(500)

const (
	frequentCountLimit = 5
	frequentTotalLimit = 1000.00
)

const defaultProcessTimeout = 5 * time.Second

// CounterStore is the per-user running counter surface, backed by the
// cache store. Both increments must be atomic on the store side.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	IncrByFloat(ctx context.Context, key string, value float64) (float64, error)
}

// Publisher delivers classification events to the downstream topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Classification is the event published downstream for every processed
// transaction.
type Classification struct {
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type Processor struct {
	counters  CounterStore
	publisher Publisher
	topic     string
	timeout   time.Duration
	now       func() time.Time
	logger    logger.Logger
}

func NewProcessor(counters CounterStore, publisher Publisher, topic string, l logger.Logger) *Processor {
	return &Processor{
		counters:  counters,
		publisher: publisher,
		topic:     topic,
		timeout:   defaultProcessTimeout,
		now:       time.Now,
		logger:    l,
	}
}

// Process bumps the user's count and running total, classifies the
// transaction and publishes the result.
//
// The counters are plain INCRs: redelivery double-counts here. That is the
// documented behavior of this variant, not a bug to fix in passing.
func (p *Processor) Process(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	t, err := models.ParseTransactionEvent(raw, p.now().UTC())
	if err != nil {
		return err
	}

	count, err := p.counters.Incr(ctx, "user:"+t.UserID+":count")
	if err != nil {
		return fmt.Errorf("%w: increment count: %v", apperrors.ErrStoreUnavailable, err)
	}

	total, err := p.counters.IncrByFloat(ctx, "user:"+t.UserID+":total_amount", t.Amount.InexactFloat64())
	if err != nil {
		return fmt.Errorf("%w: increment total: %v", apperrors.ErrStoreUnavailable, err)
	}

	c := classify(t, count, total)

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal classification: %w", err)
	}
	if err := p.publisher.Publish(ctx, p.topic, data); err != nil {
		return fmt.Errorf("publish classification: %w", err)
	}

	p.logger.Info("Transaction classified", "user_id", t.UserID, "status", c.Status)
	return nil
}

func classify(t models.Transaction, count int64, total float64) Classification {
	c := Classification{
		UserID:        t.UserID,
		TransactionID: t.ID.String(),
		Status:        StatusApproved,
		Message:       fmt.Sprintf("Transaction approved. Total transactions: %d, Total spend: $%.2f.", count, total),
	}

	switch {
	case t.Amount.GreaterThan(highValueLimit):
		c.Status = StatusReview
		c.Message = "High-value transaction detected. Flagged for manual review."
	case count > frequentCountLimit && total > frequentTotalLimit:
		c.Status = StatusAlert
		c.Message = "Frequent, high-volume spender detected. Flagged for potential premium service recommendation."
	}

	return c
}

// Handle adapts Process to the bus contract, mirroring the relational
// pipeline: malformed payloads are logged and dropped, everything else is
// redelivered.
func (p *Processor) Handle(ctx context.Context, data []byte) error {
	err := p.Process(ctx, data)
	if errors.Is(err, apperrors.ErrEventDecode) {
		p.logger.Error("Dropping malformed transaction event", "error", err)
		return nil
	}

	return err
}
