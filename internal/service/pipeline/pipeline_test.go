package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/apperrors"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
	"github.com/pigmint/savings-pipeline/internal/repository/postgres"
	"github.com/pigmint/savings-pipeline/internal/service/rules"
	"github.com/pigmint/savings-pipeline/internal/testutil"
)

// memoryCache is an in-process stand-in for the redis rule cache.
type memoryCache struct {
	entries map[string]models.RuleSet
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]models.RuleSet{}}
}

func (c *memoryCache) Get(_ context.Context, userID string) (models.RuleSet, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	ruleset, ok := c.entries[userID]
	return ruleset, ok, nil
}

func (c *memoryCache) Set(_ context.Context, userID string, ruleset models.RuleSet) error {
	c.entries[userID] = ruleset
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, userID string) error {
	delete(c.entries, userID)
	return nil
}

func TestProcessor(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := postgres.NewStorage(pg.Pool)

	// Each subtest gets its own user so state never bleeds between them.
	setup := func(t *testing.T, userID string, roundupActive bool) (*Processor, *memoryCache) {
		t.Helper()

		require.NoError(t, storage.Users().EnsureUser(t.Context(), userID))
		require.NoError(t, storage.Rules().UpsertRule(t.Context(), userID, models.RuleRoundup, roundupActive, nil))

		cache := newMemoryCache()
		store := rules.NewStore(cache, storage.Rules(), logger.NewNoOpLogger())
		return NewProcessor(storage, store, logger.NewNoOpLogger()), cache
	}

	event := func(userID string, id string, amount string) []byte {
		return []byte(fmt.Sprintf(`{"id":%q,"user_id":%q,"amount":%s,"merchant":"Starbucks #4521","category":"Coffee"}`, id, userID, amount))
	}

	t.Run("processes one event end to end", func(t *testing.T) {
		p, _ := setup(t, "u-happy", true)

		err := p.Process(t.Context(), event("u-happy", "evt-1", "19.40"))
		require.NoError(t, err)

		txs, err := storage.Transactions().ListRecent(t.Context(), "u-happy", 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.Equal(t, models.CategoryRestaurants, txs[0].CategoryNormalized)
		require.True(t, txs[0].SavedTotal.Equal(decimal.RequireFromString("0.60")), "19.40 rounds up by 0.60")

		user, err := storage.Users().GetUser(t.Context(), "u-happy")
		require.NoError(t, err)
		require.True(t, user.TotalSaved.Equal(decimal.RequireFromString("0.60")))
	})

	t.Run("redelivered event applies exactly once", func(t *testing.T) {
		p, _ := setup(t, "u-redelivery", true)

		_, err := storage.Goals().CreateGoal(t.Context(), "u-redelivery", "Vacation", decimal.RequireFromString("1500"), nil)
		require.NoError(t, err)

		raw := event("u-redelivery", "evt-1", "19.40")
		require.NoError(t, p.Process(t.Context(), raw))
		require.NoError(t, p.Process(t.Context(), raw))

		txs, err := storage.Transactions().ListRecent(t.Context(), "u-redelivery", 10)
		require.NoError(t, err)
		require.Len(t, txs, 1, "redelivery must not create a second transaction")

		saved := decimal.RequireFromString("0.60")

		sum, err := storage.Ledger().SumForUser(t.Context(), "u-redelivery")
		require.NoError(t, err)
		require.True(t, sum.Equal(saved), "one ledger entry only")

		user, err := storage.Users().GetUser(t.Context(), "u-redelivery")
		require.NoError(t, err)
		require.True(t, user.TotalSaved.Equal(saved), "total must not double")
		require.True(t, user.TotalSaved.Equal(sum), "total_saved must equal the ledger sum")

		goal, err := storage.Goals().FirstGoal(t.Context(), "u-redelivery")
		require.NoError(t, err)
		require.True(t, goal.CurrentAmount.Equal(saved), "goal progress must not double")
	})

	t.Run("inactive rule stores the transaction without savings", func(t *testing.T) {
		p, _ := setup(t, "u-inactive", false)

		require.NoError(t, p.Process(t.Context(), event("u-inactive", "evt-1", "19.40")))

		txs, err := storage.Transactions().ListRecent(t.Context(), "u-inactive", 10)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		require.True(t, txs[0].SavedTotal.IsZero())

		user, err := storage.Users().GetUser(t.Context(), "u-inactive")
		require.NoError(t, err)
		require.True(t, user.TotalSaved.IsZero())
	})

	t.Run("qualifying month produces recommendations", func(t *testing.T) {
		p, _ := setup(t, "u-recs", true)

		// 70 restaurants out of 80 total pushes the dining share over 30%
		require.NoError(t, p.Process(t.Context(), event("u-recs", "evt-1", "70.00")))
		require.NoError(t, p.Process(t.Context(), []byte(`{"id":"evt-2","user_id":"u-recs","amount":10.00,"category":"Utilities"}`)))

		rec, found, err := storage.Recommendations().Latest(t.Context(), "u-recs")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, "u-recs", rec.UserID)
		require.NotEmpty(t, rec.Message)
	})

	t.Run("concurrent deliveries keep aggregates consistent", func(t *testing.T) {
		p, _ := setup(t, "u-concurrent", true)

		_, err := storage.Goals().CreateGoal(t.Context(), "u-concurrent", "Vacation", decimal.RequireFromString("1500"), nil)
		require.NoError(t, err)

		// Four distinct purchases plus the same event delivered four times,
		// all in flight at once. Each 19.40 purchase saves 0.60, so five
		// transactions must land and exactly 3.00 must be booked.
		redelivered := event("u-concurrent", "evt-dup", "19.40")
		payloads := [][]byte{redelivered, redelivered, redelivered, redelivered}
		for _, id := range []string{"evt-a", "evt-b", "evt-c", "evt-d"} {
			payloads = append(payloads, event("u-concurrent", id, "19.40"))
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(payloads))
		for _, raw := range payloads {
			wg.Add(1)
			go func(raw []byte) {
				defer wg.Done()
				errs <- p.Process(t.Context(), raw)
			}(raw)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		txs, err := storage.Transactions().ListRecent(t.Context(), "u-concurrent", 20)
		require.NoError(t, err)
		require.Len(t, txs, 5, "four distinct purchases plus one redelivered event")

		expected := decimal.RequireFromString("3.00")

		sum, err := storage.Ledger().SumForUser(t.Context(), "u-concurrent")
		require.NoError(t, err)
		require.True(t, sum.Equal(expected), "one ledger row per (transaction, rule), got %s", sum)

		user, err := storage.Users().GetUser(t.Context(), "u-concurrent")
		require.NoError(t, err)
		require.True(t, user.TotalSaved.Equal(sum), "total_saved must equal the ledger sum, got %s vs %s", user.TotalSaved, sum)

		goal, err := storage.Goals().FirstGoal(t.Context(), "u-concurrent")
		require.NoError(t, err)
		require.True(t, goal.CurrentAmount.Equal(expected), "goal progress must match the applied savings, got %s", goal.CurrentAmount)
	})

	t.Run("undecodable event is terminal", func(t *testing.T) {
		p, _ := setup(t, "u-broken", true)

		err := p.Process(t.Context(), []byte(`{"amount": 5}`))
		require.ErrorIs(t, err, apperrors.ErrEventDecode)

		require.NoError(t, p.Handle(t.Context(), []byte(`{"amount": 5}`)), "handle must acknowledge decode failures")
	})

	t.Run("rule store outage is retryable", func(t *testing.T) {
		p, cache := setup(t, "u-outage", true)
		cache.getErr = fmt.Errorf("connection refused")

		err := p.Process(t.Context(), event("u-outage", "evt-1", "19.40"))
		require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

		err = p.Handle(t.Context(), event("u-outage", "evt-1", "19.40"))
		require.Error(t, err, "handle must propagate retryable failures")

		txs, err := storage.Transactions().ListRecent(t.Context(), "u-outage", 10)
		require.NoError(t, err)
		require.Empty(t, txs, "nothing may commit when rules cannot be loaded")
	})
}
