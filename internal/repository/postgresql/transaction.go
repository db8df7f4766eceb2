package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type txKey string

// TxContextKey is where GetQuerier looks for an open transaction.
const TxContextKey txKey = "tx"

// WithTransaction executes fn inside a database transaction
func WithTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				fmt.Printf("rollback error during panic recovery: %v\n", rbErr)
			}
			panic(p)
		}
	}()

	// Execute function
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetQuerier returns either transaction or pool
// Used in repositories to support both transactional and non-transactional operations
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(TxContextKey).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// Transactor binds a transaction to the context so every repository call made
// with that context joins it.
type Transactor struct {
	db *database.DB
}

func NewTransactor(db *database.DB) worklog.Transactor {
	return &Transactor{db: db}
}

// WithinTx implements worklog.Transactor. A context that already carries a
// transaction reuses it.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(TxContextKey).(pgx.Tx); ok {
		return fn(ctx)
	}
	return WithTransaction(ctx, t.db, func(tx pgx.Tx) error {
		return fn(context.WithValue(ctx, TxContextKey, tx))
	})
}
