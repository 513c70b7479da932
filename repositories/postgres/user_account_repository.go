package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/repositories"
	"go.uber.org/zap"
)

const userAccountColumns = `id, nickname, github_nickname, provider, provider_subject, admin, refresh_token, created_at, updated_at, deleted_at`

// UserAccountRepository implements the repositories.UserAccountRepository interface
type UserAccountRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserAccountRepository creates a new user account repository
func NewUserAccountRepository(db *DB, logger *zap.Logger) repositories.UserAccountRepository {
	return &UserAccountRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new account
func (r *UserAccountRepository) Create(ctx context.Context, account *models.UserAccount) error {
	query := `
		INSERT INTO user_accounts (id, nickname, github_nickname, provider, provider_subject, admin, refresh_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		account.ID,
		account.Nickname,
		account.GithubNickname,
		account.Provider,
		account.ProviderSubject,
		account.Admin,
		account.RefreshToken,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if dupErr, ok := uniqueViolationError(err); ok {
			return fmt.Errorf("failed to create user account: %w", dupErr)
		}
		return fmt.Errorf("failed to create user account: %w", err)
	}

	r.logger.Debug("user account created",
		zap.String("id", account.ID.String()),
		zap.String("nickname", account.Nickname))
	return nil
}

// GetByID retrieves a live account by ID
func (r *UserAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	query := `SELECT ` + userAccountColumns + ` FROM user_accounts WHERE id = $1 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	account, err := scanUserAccount(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user account %s: %w", id, err)
	}
	return account, nil
}

// GetByProviderSubject retrieves a live account by identity provider subject
func (r *UserAccountRepository) GetByProviderSubject(ctx context.Context, provider models.Provider, subject string) (*models.UserAccount, error) {
	query := `SELECT ` + userAccountColumns + ` FROM user_accounts
		WHERE provider = $1 AND provider_subject = $2 AND deleted_at IS NULL`

	executor := GetExecutor(ctx, r.db)
	account, err := scanUserAccount(executor.QueryRowContext(ctx, query, provider, subject))
	if err != nil {
		return nil, fmt.Errorf("failed to get user account for %s subject: %w", provider, err)
	}
	return account, nil
}

// ExistsByNickname reports whether a live account uses nickname
func (r *UserAccountRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_accounts WHERE nickname = $1 AND deleted_at IS NULL)`

	executor := GetExecutor(ctx, r.db)
	var exists bool
	if err := executor.QueryRowContext(ctx, query, nickname).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check nickname: %w", err)
	}
	return exists, nil
}

// UpdateNickname changes the nickname of a live account
func (r *UserAccountRepository) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	query := `
		UPDATE user_accounts
		SET nickname = $2,
		    updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, nickname, time.Now().UTC())
	if err != nil {
		if dupErr, ok := uniqueViolationError(err); ok {
			return fmt.Errorf("failed to update nickname: %w", dupErr)
		}
		return fmt.Errorf("failed to update nickname: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to update nickname of %s: %w", id, err)
	}

	r.logger.Debug("nickname updated", zap.String("id", id.String()))
	return nil
}

// UpdateRefreshToken stores the latest refresh token issued to the account
func (r *UserAccountRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) error {
	query := `
		UPDATE user_accounts
		SET refresh_token = $2,
		    updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, refreshToken, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to update refresh token of %s: %w", id, err)
	}
	return nil
}

// SoftDelete marks the account deleted and drops its refresh token
func (r *UserAccountRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE user_accounts
		SET deleted_at = $2,
		    refresh_token = '',
		    updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to delete user account: %w", err)
	}

	if err := expectOneRow(result); err != nil {
		return fmt.Errorf("failed to delete user account %s: %w", id, err)
	}

	r.logger.Debug("user account deleted", zap.String("id", id.String()))
	return nil
}

func scanUserAccount(row *sql.Row) (*models.UserAccount, error) {
	account := &models.UserAccount{}
	var deletedAt sql.NullTime

	err := row.Scan(
		&account.ID,
		&account.Nickname,
		&account.GithubNickname,
		&account.Provider,
		&account.ProviderSubject,
		&account.Admin,
		&account.RefreshToken,
		&account.CreatedAt,
		&account.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}

	if deletedAt.Valid {
		account.DeletedAt = &deletedAt.Time
	}
	return account, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
