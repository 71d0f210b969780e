package handlers

import (
	"net/http"

	"github.com/pigmint/savings-pipeline/internal/handlers/middleware"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/repository"
	"github.com/pigmint/savings-pipeline/internal/service/analytics"
	"github.com/pigmint/savings-pipeline/internal/service/rules"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// Deps is everything the HTTP surface needs.
type Deps struct {
	Storage    repository.Storage
	RuleStore  *rules.Store
	Analytics  *analytics.Service
	Pipeline   eventProcessor
	Publisher  eventPublisher
	EventTopic string

	// Single-tenant demo identity: request handlers act for this user.
	DemoUserID string

	Logger logger.Logger
}

func NewRouter(d Deps) http.Handler {
	api := http.NewServeMux()

	api.Handle("GET /me", handleMe(d.Storage.Users(), d.DemoUserID, d.Logger))
	api.Handle("GET /transactions/recent", handleRecentTransactions(d.Storage.Transactions(), d.DemoUserID, d.Logger))
	api.Handle("POST /transactions/simulate", handleSimulateTransaction(d.Publisher, d.EventTopic, d.DemoUserID, d.Logger))
	api.Handle("GET /goals", handleListGoals(d.Storage.Goals(), d.DemoUserID, d.Logger))
	api.Handle("POST /goals", handleCreateGoal(d.Storage.Goals(), d.Storage.Users(), d.DemoUserID, d.Logger))
	api.Handle("GET /rules", handleListRules(d.RuleStore, d.DemoUserID, d.Logger))
	api.Handle("POST /rules/{name}", handleToggleRule(d.Storage.Rules(), d.Storage.Users(), d.RuleStore, d.DemoUserID, d.Logger))
	api.Handle("GET /recommendations/latest", handleLatestRecommendation(d.Storage.Recommendations(), d.DemoUserID, d.Logger))
	api.Handle("GET /dashboard/overview", handleDashboardOverview(d.Storage, d.DemoUserID, d.Logger))
	api.Handle("GET /spend/categories", handleSpendCategories(d.Analytics, d.DemoUserID, d.Logger))

	root := http.NewServeMux()
	root.Handle("GET /ready", handleReady())
	root.Handle("POST /internal/pubsub/transactions", handlePushTransaction(d.Pipeline, d.Logger))
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(d.Logger),
	)
}

func handleReady() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
