// Package rulecache is the time-bounded cache in front of the rules table.
//
// Cache entries are full per-user snapshots so invalidation stays atomic.
// The cache never invalidates itself except by TTL expiry: the rule-config
// API calls Invalidate on every mutation, and readers accept a staleness
// window of up to the TTL.
package rulecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pigmint/savings-pipeline/internal/models"
)

const DefaultTTL = 300 * time.Second

// Cache is the rule snapshot cache contract.
type Cache interface {
	// Get returns the cached snapshot, found=false on a miss
	Get(ctx context.Context, userID string) (rules models.RuleSet, found bool, err error)

	// Set stores a snapshot with the configured TTL
	Set(ctx context.Context, userID string, rules models.RuleSet) error

	// Invalidate drops the user's snapshot. Must be called by whoever
	// mutates a rule.
	Invalidate(ctx context.Context, userID string) error
}

type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func New(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &RedisCache{rdb: rdb, ttl: ttl}
}

func key(userID string) string {
	return "rules:" + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (models.RuleSet, bool, error) {
	raw, err := c.rdb.Get(ctx, key(userID)).Bytes()

	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("rule cache get: %w", err)
	}

	var rules models.RuleSet
	if err := json.Unmarshal(raw, &rules); err != nil {
		// Corrupt entry reads as a miss, the next Set overwrites it
		return nil, false, nil
	}

	return rules, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, rules models.RuleSet) error {
	raw, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("rule cache marshal: %w", err)
	}

	if err := c.rdb.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("rule cache set: %w", err)
	}

	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("rule cache invalidate: %w", err)
	}

	return nil
}
