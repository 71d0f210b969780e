package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pigmint/savings-pipeline/internal/repository"
)

// DBTX is the common surface of pgxpool.Pool and pgx.Tx the repos rely on.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) Users() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Rules() repository.RuleRepo {
	return &RuleRepo{DB: s.db}
}

func (s *Storage) Transactions() repository.TransactionRepo {
	return &TransactionRepo{DB: s.db}
}

func (s *Storage) Ledger() repository.LedgerRepo {
	return &LedgerRepo{DB: s.db}
}

func (s *Storage) Goals() repository.GoalRepo {
	return &GoalRepo{DB: s.db}
}

func (s *Storage) Recommendations() repository.RecommendationRepo {
	return &RecommendationRepo{DB: s.db}
}

func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
