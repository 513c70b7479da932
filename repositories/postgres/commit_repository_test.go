package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommitRepository_Upsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommitRepository(db, zap.NewNop())
	userID := uuid.New()
	record := models.NewCommitRecord(userID, time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC), 4)

	mock.ExpectExec("ON CONFLICT \\(user_id, commit_date\\)").
		WithArgs(userID, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 4, record.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitRepository_GetByUserAndDate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCommitRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM commit_records").
			WithArgs(userID, day).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "commit_date", "commit_count", "updated_at"}).
				AddRow(userID.String(), day, 3, day))

		record, err := repo.GetByUserAndDate(ctx, userID, day.Add(15*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 3, record.CommitCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCommitRepository(db, zap.NewNop())

		mock.ExpectQuery("FROM commit_records").
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "commit_date", "commit_count", "updated_at"}))

		_, err := repo.GetByUserAndDate(ctx, userID, day)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestCommitRepository_DeleteByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommitRepository(db, zap.NewNop())
	userID := uuid.New()

	mock.ExpectExec("DELETE FROM commit_records").
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.DeleteByUserID(context.Background(), userID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
