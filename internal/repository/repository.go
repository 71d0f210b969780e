package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pigmint/savings-pipeline/internal/models"
)

// Spend aggregation periods.
const (
	PeriodThisMonth = "this_month"
	PeriodThisWeek  = "this_week"
	PeriodAll       = "all"
)

type UserRepo interface {
	// Insert user if it does not exist yet, no-op otherwise
	EnsureUser(ctx context.Context, userID string) error

	// Get user by id
	// If user not found must return apperrors.ErrUserNotFound
	GetUser(ctx context.Context, userID string) (models.User, error)

	// Atomically add amount to the user's total_saved
	// Creates the user row if it does not exist yet
	AddTotalSaved(ctx context.Context, userID string, amount decimal.Decimal) error
}

type RuleRepo interface {
	// Full snapshot of the user's rules keyed by name
	ListRules(ctx context.Context, userID string) (models.RuleSet, error)

	// Insert or update one rule, keyed by (user_id, name)
	UpsertRule(ctx context.Context, userID string, name string, isActive bool, config json.RawMessage) error
}

type TransactionRepo interface {
	// Create transaction with the precomputed id
	// If a transaction with the id exists already return it as is,
	// created=false. Required for clean redelivery.
	CreateTransaction(ctx context.Context, t models.Transaction) (tx models.Transaction, created bool, err error)

	// Recent transactions with per-transaction savings totals
	ListRecent(ctx context.Context, userID string, limit int) ([]models.TransactionWithSaved, error)

	// Current calendar month aggregates for recommendation thresholds
	MonthlyProfile(ctx context.Context, userID string) (models.SpendProfile, error)

	// Per-category totals for the given period (this_month, this_week, all)
	CategoryTotals(ctx context.Context, userID string, period string) ([]models.CategorySpend, error)
}

type LedgerRepo interface {
	// Insert one ledger entry keyed by (transaction_id, rule_name).
	// A retried insert for the same key is a no-op: applied=false.
	InsertEntry(ctx context.Context, entry models.SavingsLedgerEntry) (applied bool, err error)

	// Sum of all entries for the user (the total_saved invariant source)
	SumForUser(ctx context.Context, userID string) (decimal.Decimal, error)
}

type GoalRepo interface {
	CreateGoal(ctx context.Context, userID string, name string, target decimal.Decimal, deadline *time.Time) (models.Goal, error)

	ListGoals(ctx context.Context, userID string) ([]models.Goal, error)

	// Earliest created goal for the user: the one that receives savings.
	// If the user has no goals must return apperrors.ErrGoalNotFound
	FirstGoal(ctx context.Context, userID string) (models.Goal, error)

	// Append one progress entry keyed by transaction_id.
	// A retried insert for the same transaction is a no-op: applied=false.
	AddProgress(ctx context.Context, goalID uuid.UUID, transactionID uuid.UUID, amount decimal.Decimal) (applied bool, err error)

	// Atomically add amount to the goal's current_amount
	AddCurrentAmount(ctx context.Context, goalID uuid.UUID, amount decimal.Decimal) error
}

type RecommendationRepo interface {
	Insert(ctx context.Context, rec models.Recommendation) (models.Recommendation, error)

	// Latest recommendation for the user
	// If none exists must return pgx.ErrNoRows mapped to found=false
	Latest(ctx context.Context, userID string) (rec models.Recommendation, found bool, err error)
}

// Storage combines all repositories over one database handle.
type Storage interface {
	Users() UserRepo
	Rules() RuleRepo
	Transactions() TransactionRepo
	Ledger() LedgerRepo
	Goals() GoalRepo
	Recommendations() RecommendationRepo

	// Run fn with a Storage bound to a single database transaction.
	// Commit if fn returns nil, rollback otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}
