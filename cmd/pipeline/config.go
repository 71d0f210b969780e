package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/pigmint/savings-pipeline/internal/logger"
	"github.com/pigmint/savings-pipeline/internal/rulecache"
)

const (
	defaultListenAddr   = "localhost:8080"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultRedisAddr    = "localhost:6379"
	defaultDemoUserID   = "demo_user"

	defaultTransactionsTopic    = "transactions.raw"
	defaultRecommendationsTopic = "recommendations.generated"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the HTTP surface will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis address for the rule cache and legacy counters
	RedisAddr string

	// TTL for cached rule snapshots
	RulesCacheTTL time.Duration

	// Topic the inbound transaction events arrive on
	TransactionsTopic string

	// Topic the legacy pipeline publishes classifications to
	RecommendationsTopic string

	// Single-tenant demo identity used by the read API
	DemoUserID string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:             defaultLoggingLevel,
		ListenAddr:           defaultListenAddr,
		RedisAddr:            defaultRedisAddr,
		RulesCacheTTL:        rulecache.DefaultTTL,
		TransactionsTopic:    defaultTransactionsTopic,
		RecommendationsTopic: defaultRecommendationsTopic,
		DemoUserID:           defaultDemoUserID,
		Environment:          defaultEnvironment,
	}
}

// Validate catches configuration the process cannot serve without.
func (c *Config) Validate() error {
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_URI is required")
	}
	if c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}

	return nil
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":           setString(&c.ListenAddr),
		"DATABASE_URI":          setString(&c.DatabaseDSN),
		"REDIS_ADDR":            setString(&c.RedisAddr),
		"RULES_CACHE_TTL":       setDuration(&c.RulesCacheTTL),
		"TRANSACTIONS_TOPIC":    setString(&c.TransactionsTopic),
		"RECOMMENDATIONS_TOPIC": setString(&c.RecommendationsTopic),
		"DEMO_USER_ID":          setString(&c.DemoUserID),
		"LOG_LEVEL":             setString(&c.LogLevel),
		"ENVIRONMENT":           setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("savings-pipeline", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisAddr, "redis", "r", c.RedisAddr, "Redis address")
	fs.DurationVar(&c.RulesCacheTTL, "rules-cache-ttl", c.RulesCacheTTL, "TTL for cached rule snapshots")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
