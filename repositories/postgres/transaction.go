package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gromit-app/gromit/repositories"
	"go.uber.org/zap"
)

// txKey carries the *sql.Tx of the unit of work running under a context
type txKey struct{}

// TransactionManager runs account units of work on a single *sql.Tx
type TransactionManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{
		db:     db,
		logger: logger,
	}
}

// InTransaction runs fn inside one transaction. Repository calls made with the
// context handed to fn join it through GetExecutor. The transaction commits
// when fn returns nil and rolls back otherwise. A context that already carries
// a transaction runs fn in it unchanged.
func (tm *TransactionManager) InTransaction(ctx context.Context, op repositories.TxOp, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	logger := tm.logger.With(
		zap.String("operation", op.Name),
		zap.String("user_id", op.UserID.String()),
	)

	tx, err := tm.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op.Name, err)
	}
	start := time.Now()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.Error("rollback failed", zap.Error(rbErr), zap.NamedError("cause", err))
		} else {
			logger.Debug("rolled back", zap.Error(err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("commit failed", zap.Error(err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op.Name, err)
	}

	logger.Debug("committed", zap.Duration("duration", time.Since(start)))
	return nil
}

func txFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// Executor is satisfied by both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// GetExecutor returns the transaction carried by ctx, or the pool when there is none
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return db.DB
}
