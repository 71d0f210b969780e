package rules

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type fakeCache struct {
	entries map[string]models.RuleSet

	getErr        error
	setErr        error
	invalidateErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]models.RuleSet{}}
}

func (c *fakeCache) Get(_ context.Context, userID string) (models.RuleSet, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	rules, ok := c.entries[userID]
	return rules, ok, nil
}

func (c *fakeCache) Set(_ context.Context, userID string, rules models.RuleSet) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[userID] = rules
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, userID string) error {
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	delete(c.entries, userID)
	return nil
}

type fakeRuleRepo struct {
	rules models.RuleSet
	err   error

	listCalls int
}

func (r *fakeRuleRepo) ListRules(_ context.Context, _ string) (models.RuleSet, error) {
	r.listCalls++
	if r.err != nil {
		return nil, r.err
	}
	return r.rules, nil
}

func (r *fakeRuleRepo) UpsertRule(_ context.Context, _ string, _ string, _ bool, _ json.RawMessage) error {
	return nil
}

func activeRoundup() models.RuleSet {
	return models.RuleSet{
		models.RuleRoundup: {IsActive: true, Config: json.RawMessage(`{}`)},
	}
}

func TestStoreActiveRules(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the repository", func(t *testing.T) {
		cache := newFakeCache()
		cache.entries["u1"] = activeRoundup()
		repo := &fakeRuleRepo{}
		store := NewStore(cache, repo, logger.NewNoOpLogger())

		rules, err := store.ActiveRules(ctx, "u1")
		require.NoError(t, err)
		require.True(t, rules[models.RuleRoundup].IsActive)
		require.Zero(t, repo.listCalls)
	})

	t.Run("cache miss loads and populates", func(t *testing.T) {
		cache := newFakeCache()
		repo := &fakeRuleRepo{rules: activeRoundup()}
		store := NewStore(cache, repo, logger.NewNoOpLogger())

		rules, err := store.ActiveRules(ctx, "u1")
		require.NoError(t, err)
		require.True(t, rules[models.RuleRoundup].IsActive)
		require.Equal(t, 1, repo.listCalls)
		require.Contains(t, cache.entries, "u1")
	})

	t.Run("cache read failure is unavailable, not empty", func(t *testing.T) {
		cache := newFakeCache()
		cache.getErr = errors.New("connection refused")
		store := NewStore(cache, &fakeRuleRepo{}, logger.NewNoOpLogger())

		_, err := store.ActiveRules(ctx, "u1")
		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	t.Run("repository failure is unavailable", func(t *testing.T) {
		cache := newFakeCache()
		repo := &fakeRuleRepo{err: errors.New("db down")}
		store := NewStore(cache, repo, logger.NewNoOpLogger())

		_, err := store.ActiveRules(ctx, "u1")
		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	})

	t.Run("cache write failure does not fail the read", func(t *testing.T) {
		cache := newFakeCache()
		cache.setErr = errors.New("write timeout")
		repo := &fakeRuleRepo{rules: activeRoundup()}
		store := NewStore(cache, repo, logger.NewNoOpLogger())

		rules, err := store.ActiveRules(ctx, "u1")
		require.NoError(t, err)
		require.True(t, rules[models.RuleRoundup].IsActive)
	})
}

func TestStoreInvalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("drops the cached snapshot", func(t *testing.T) {
		cache := newFakeCache()
		cache.entries["u1"] = activeRoundup()
		store := NewStore(cache, &fakeRuleRepo{}, logger.NewNoOpLogger())

		require.NoError(t, store.Invalidate(ctx, "u1"))
		require.NotContains(t, cache.entries, "u1")
	})

	t.Run("cache failure surfaces as unavailable", func(t *testing.T) {
		cache := newFakeCache()
		cache.invalidateErr = errors.New("connection refused")
		store := NewStore(cache, &fakeRuleRepo{}, logger.NewNoOpLogger())

		require.ErrorIs(t, store.Invalidate(ctx, "u1"), apperrors.ErrStoreUnavailable)
	})
}
