package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pigmint/savings-pipeline/internal/bus"
	"github.com/pigmint/savings-pipeline/internal/db"
	"github.com/pigmint/savings-pipeline/internal/handlers"
	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/repository/postgres"
	"github.com/pigmint/savings-pipeline/internal/rulecache"
	"github.com/pigmint/savings-pipeline/internal/service/analytics"
	"github.com/pigmint/savings-pipeline/internal/service/counterflow"
	"github.com/pigmint/savings-pipeline/internal/service/pipeline"
	"github.com/pigmint/savings-pipeline/internal/service/rules"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Bus        *bus.Bus
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Connect to redis and confirm it answers
	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	ruleStore := rules.NewStore(rulecache.New(rdb, c.RulesCacheTTL), storage.Rules(), logger)
	processor := pipeline.NewProcessor(storage, ruleStore, logger)
	analyticsService := analytics.NewService(storage.Transactions())

	// Wire both event consumers to the inbound topic
	eventBus := bus.New(logger)
	counterProcessor := counterflow.NewProcessor(
		counterflow.NewRedisCounters(rdb),
		eventBus,
		c.RecommendationsTopic,
		logger,
	)
	eventBus.Subscribe(c.TransactionsTopic, processor.Handle)
	eventBus.Subscribe(c.TransactionsTopic, counterProcessor.Handle)

	mux := handlers.NewRouter(handlers.Deps{
		Storage:    storage,
		RuleStore:  ruleStore,
		Analytics:  analyticsService,
		Pipeline:   processor,
		Publisher:  eventBus,
		EventTopic: c.TransactionsTopic,
		DemoUserID: c.DemoUserID,
		Logger:     logger,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Bus:        eventBus,
	}, nil
}

// Run starts the bus workers and http server, closes gracefully on context
// cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	busStopped := s.Bus.Run(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-busStopped

	return err
}
