package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gromit-app/gromit/config"
	"github.com/gromit-app/gromit/repositories"
	"github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// Partial unique indexes guarding live accounts
const (
	nicknameLiveIndex = "idx_user_accounts_nickname_live"
	providerLiveIndex = "idx_user_accounts_provider_live"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return Wrap(db, logger), nil
}

// Wrap adapts an existing pool, e.g. one opened by sqlmock in tests
func Wrap(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS user_accounts (
			id UUID PRIMARY KEY,
			nickname VARCHAR(8) NOT NULL,
			github_nickname VARCHAR(39) NOT NULL,
			provider VARCHAR(20) NOT NULL,
			provider_subject VARCHAR(255) NOT NULL,
			admin BOOLEAN NOT NULL DEFAULT false,
			refresh_token TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			deleted_at TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS commit_records (
			user_id UUID NOT NULL REFERENCES user_accounts(id) ON DELETE CASCADE,
			commit_date DATE NOT NULL,
			commit_count INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, commit_date)
		);

		-- Nicknames and provider identities are unique among live accounts only
		CREATE UNIQUE INDEX IF NOT EXISTS ` + nicknameLiveIndex + `
			ON user_accounts(nickname) WHERE deleted_at IS NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS ` + providerLiveIndex + `
			ON user_accounts(provider, provider_subject) WHERE deleted_at IS NULL;
		CREATE INDEX IF NOT EXISTS idx_commit_records_commit_date ON commit_records(commit_date);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}

// violatedConstraint returns the constraint named by a unique violation
func violatedConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// uniqueViolationError maps a unique violation onto the repository sentinel
// for the index it hit. Violations of unnamed constraints count as nickname
// conflicts, the only user-chosen unique value.
func uniqueViolationError(err error) (error, bool) {
	constraint, ok := violatedConstraint(err)
	if !ok {
		return nil, false
	}
	if constraint == providerLiveIndex {
		return repositories.ErrDuplicateIdentity, true
	}
	return repositories.ErrDuplicateNickname, true
}
