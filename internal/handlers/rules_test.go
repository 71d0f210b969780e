package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/models"
)

type fakeRuleStore struct {
	rules models.RuleSet
	err   error

	upserts       []string
	invalidated   []string
	invalidateErr error
}

func (s *fakeRuleStore) ActiveRules(_ context.Context, _ string) (models.RuleSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules, nil
}

func (s *fakeRuleStore) UpsertRule(_ context.Context, _ string, name string, _ bool, _ json.RawMessage) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, name)
	return nil
}

func (s *fakeRuleStore) Invalidate(_ context.Context, userID string) error {
	if s.invalidateErr != nil {
		return s.invalidateErr
	}
	s.invalidated = append(s.invalidated, userID)
	return nil
}

type fakeUsers struct {
	ensured []string
	err     error
}

func (u *fakeUsers) EnsureUser(_ context.Context, userID string) error {
	if u.err != nil {
		return u.err
	}
	u.ensured = append(u.ensured, userID)
	return nil
}

func TestHandleListRules(t *testing.T) {
	t.Run("renders the snapshot", func(t *testing.T) {
		store := &fakeRuleStore{rules: models.RuleSet{
			models.RuleRoundup: {IsActive: true, Config: json.RawMessage(`{}`)},
		}}
		h := handleListRules(store, "demo_user", logger.NewNoOpLogger())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rules", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"rules": {"roundup": {"is_active": true, "config": {}}}}`, rec.Body.String())
	})

	t.Run("store outage is 503", func(t *testing.T) {
		store := &fakeRuleStore{err: errors.New("redis down")}
		h := handleListRules(store, "demo_user", logger.NewNoOpLogger())

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rules", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleToggleRule(t *testing.T) {
	toggle := func(t *testing.T, store *fakeRuleStore, users *fakeUsers, body string) *httptest.ResponseRecorder {
		t.Helper()

		mux := http.NewServeMux()
		mux.Handle("POST /rules/{name}", handleToggleRule(store, users, store, "demo_user", logger.NewNoOpLogger()))

		req := httptest.NewRequest(http.MethodPost, "/rules/roundup", strings.NewReader(body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("upserts and invalidates the cache", func(t *testing.T) {
		store := &fakeRuleStore{}
		users := &fakeUsers{}

		rec := toggle(t, store, users, `{"enabled": true}`)

		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"rule": "roundup", "enabled": true}`, rec.Body.String())
		require.Equal(t, []string{"demo_user"}, users.ensured)
		require.Equal(t, []string{"roundup"}, store.upserts)
		require.Equal(t, []string{"demo_user"}, store.invalidated)
	})

	t.Run("missing enabled field is 400", func(t *testing.T) {
		store := &fakeRuleStore{}

		rec := toggle(t, store, &fakeUsers{}, `{"config": {}}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Empty(t, store.upserts)
	})

	t.Run("invalidation failure still reports success", func(t *testing.T) {
		store := &fakeRuleStore{invalidateErr: errors.New("redis down")}

		rec := toggle(t, store, &fakeUsers{}, `{"enabled": false}`)

		require.Equal(t, http.StatusOK, rec.Code, "rule is persisted, stale cache ages out by TTL")
		require.Equal(t, []string{"roundup"}, store.upserts)
	})
}
