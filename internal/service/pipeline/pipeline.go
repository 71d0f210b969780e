// Package pipeline orchestrates the processing of one inbound transaction
// event: decode, normalize, rule evaluation, ledger and aggregate updates,
// recommendation generation, all committed as a single unit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
	"github.com/pigmint/savings-pipeline/internal/service/category"
	"github.com/pigmint/savings-pipeline/internal/service/ledger"
	"github.com/pigmint/savings-pipeline/internal/service/recommend"
	"github.com/pigmint/savings-pipeline/internal/service/savings"
)

// Pipeline stages, in order. Commit happens only after the last one, so any
// failure before StageCommitted rolls back with no durable partial effect.
const (
	StageReceived       = "received"
	StageDecoded        = "decoded"
	StageNormalized     = "normalized"
	StageRulesLoaded    = "rules_loaded"
	StageSavingsApplied = "savings_applied"
	StageAggregates     = "aggregates_updated"
	StageRecommended    = "recommendations_generated"
	StageCommitted      = "committed"
)

const defaultProcessTimeout = 10 * time.Second

type ruleStore interface {
	ActiveRules(ctx context.Context, userID string) (models.RuleSet, error)
}

type Processor struct {
	storage     repository.Storage
	rules       ruleStore
	ledger      *ledger.Updater
	recommender *recommend.Generator
	timeout     time.Duration
	now         func() time.Time
	logger      logger.Logger
}

func NewProcessor(storage repository.Storage, rules ruleStore, l logger.Logger) *Processor {
	return &Processor{
		storage:     storage,
		rules:       rules,
		ledger:      ledger.NewUpdater(),
		recommender: recommend.NewGenerator(),
		timeout:     defaultProcessTimeout,
		now:         time.Now,
		logger:      l,
	}
}

// Process runs one event through the full pipeline.
//
// Error contract for the delivery collaborator:
//   - apperrors.ErrEventDecode: terminal, acknowledge and drop
//   - anything else: retryable, redeliver the whole event
//
// Redelivery of an already committed event is a no-op end to end: the
// transaction insert, ledger entries and goal progress all key on ids
// derived from the event, so nothing is double-applied.
func (p *Processor) Process(ctx context.Context, raw []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	t, err := models.ParseTransactionEvent(raw, p.now().UTC())
	if err != nil {
		return fmt.Errorf("stage %s: %w", StageDecoded, err)
	}
	log := p.logger.With("user_id", t.UserID, "transaction_id", t.ID)

	t.CategoryNormalized = category.Normalize(t.CategoryRaw)
	log.Debug("Event normalized", "stage", StageNormalized, "category", t.CategoryNormalized)

	ruleset, err := p.rules.ActiveRules(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("stage %s: %w", StageRulesLoaded, err)
	}

	actions := savings.Evaluate(t.Amount, ruleset)

	err = p.storage.InTx(ctx, func(s repository.Storage) error {
		stored, created, err := s.Transactions().CreateTransaction(ctx, t)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if !created {
			log.Info("Transaction seen before, applying idempotently")
		}

		applied, err := p.ledger.Apply(ctx, s, t.UserID, stored.ID, actions)
		if err != nil {
			return fmt.Errorf("stage %s: %w", StageSavingsApplied, err)
		}
		log.Debug("Savings applied", "stage", StageAggregates, "amount", applied)

		recs, err := p.recommender.Generate(ctx, s, t.UserID)
		if err != nil {
			return fmt.Errorf("stage %s: %w", StageRecommended, err)
		}
		log.Debug("Recommendations generated", "stage", StageRecommended, "count", len(recs))

		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Transaction processed", "stage", StageCommitted, "amount", t.Amount)
	return nil
}

// Handle adapts Process to the bus contract: decode failures are logged and
// acknowledged (nil) so a malformed payload is not retried forever, every
// other failure propagates for redelivery.
func (p *Processor) Handle(ctx context.Context, data []byte) error {
	err := p.Process(ctx, data)
	if errors.Is(err, apperrors.ErrEventDecode) {
		p.logger.Error("Dropping malformed transaction event", "error", err)
		return nil
	}

	return err
}
