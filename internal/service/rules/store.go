// Package rules serves per-user savings rule snapshots through a
// time-bounded cache.
package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository"
	"github.com/pigmint/savings-pipeline/internal/rulecache"
)

const defaultCallTimeout = 3 * time.Second

type Store struct {
	cache       rulecache.Cache
	ruleRepo    repository.RuleRepo
	callTimeout time.Duration
	logger      logger.Logger
}

func NewStore(cache rulecache.Cache, ruleRepo repository.RuleRepo, l logger.Logger) *Store {
	return &Store{
		cache:       cache,
		ruleRepo:    ruleRepo,
		callTimeout: defaultCallTimeout,
		logger:      l,
	}
}

// ActiveRules returns the user's rule snapshot, cache first.
//
// A backing store failure is ErrStoreUnavailable, never an empty snapshot:
// treating an outage as "no rules active" would silently suppress savings.
// Snapshots may be stale up to the cache TTL, that is the accepted
// consistency window.
func (s *Store) ActiveRules(ctx context.Context, userID string) (models.RuleSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	rules, found, err := s.cache.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}
	if found {
		return rules, nil
	}

	rules, err = s.ruleRepo.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	if err := s.cache.Set(ctx, userID, rules); err != nil {
		// The snapshot itself is good, only the next reader pays again
		s.logger.Warn("Failed to cache rule snapshot", "user_id", userID, "error", err)
	}

	return rules, nil
}

// Invalidate drops the cached snapshot. Rule mutations must call this so a
// toggle becomes visible before the TTL runs out.
func (s *Store) Invalidate(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrStoreUnavailable, err)
	}

	return nil
}
