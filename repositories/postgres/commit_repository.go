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

// CommitRepository implements the repositories.CommitRepository interface
type CommitRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCommitRepository creates a new commit repository
func NewCommitRepository(db *DB, logger *zap.Logger) repositories.CommitRepository {
	return &CommitRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces the record for (user, day)
func (r *CommitRepository) Upsert(ctx context.Context, record *models.CommitRecord) error {
	query := `
		INSERT INTO commit_records (user_id, commit_date, commit_count, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, commit_date)
		DO UPDATE SET commit_count = EXCLUDED.commit_count,
		              updated_at = EXCLUDED.updated_at
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		record.UserID,
		models.TruncateToDay(record.CommitDate),
		record.CommitCount,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert commit record: %w", err)
	}

	r.logger.Debug("commit record saved",
		zap.String("user_id", record.UserID.String()),
		zap.Int("commit_count", record.CommitCount))
	return nil
}

// GetByUserAndDate retrieves the record for a user on one day
func (r *CommitRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*models.CommitRecord, error) {
	query := `
		SELECT user_id, commit_date, commit_count, updated_at
		FROM commit_records
		WHERE user_id = $1 AND commit_date = $2
	`

	executor := GetExecutor(ctx, r.db)
	record := &models.CommitRecord{}

	err := executor.QueryRowContext(ctx, query, userID, models.TruncateToDay(date)).Scan(
		&record.UserID,
		&record.CommitDate,
		&record.CommitCount,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get commit record: %w", err)
	}

	return record, nil
}

// DeleteByUserID removes every record of a user
func (r *CommitRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM commit_records WHERE user_id = $1`

	executor := GetExecutor(ctx, r.db)
	if _, err := executor.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete commit records: %w", err)
	}
	return nil
}
