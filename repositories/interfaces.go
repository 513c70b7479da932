package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/models"
)

var (
	// ErrNotFound is returned when no live row matches the lookup
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateNickname is returned when a nickname is already taken
	ErrDuplicateNickname = errors.New("nickname already exists")

	// ErrDuplicateIdentity is returned when a live account already holds the provider identity
	ErrDuplicateIdentity = errors.New("provider identity already registered")
)

// TxOp names a unit of work and the account it acts on, for logging
type TxOp struct {
	Name   string
	UserID uuid.UUID
}

// TransactionManager runs units of work atomically
type TransactionManager interface {
	// InTransaction runs fn with a context bound to one transaction.
	// It commits when fn returns nil and rolls back otherwise.
	InTransaction(ctx context.Context, op TxOp, fn func(ctx context.Context) error) error
}

// UserAccountRepository handles user account data operations.
// Soft-deleted accounts are invisible to every lookup.
type UserAccountRepository interface {
	// Create creates a new account
	Create(ctx context.Context, account *models.UserAccount) error

	// GetByID retrieves a live account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error)

	// GetByProviderSubject retrieves a live account by identity provider subject
	GetByProviderSubject(ctx context.Context, provider models.Provider, subject string) (*models.UserAccount, error)

	// ExistsByNickname reports whether a live account uses nickname
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)

	// UpdateNickname changes the nickname of a live account
	UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error

	// UpdateRefreshToken stores the latest refresh token issued to the account
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) error

	// SoftDelete marks the account deleted at the given time
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CommitRepository handles daily commit count data operations
type CommitRepository interface {
	// Upsert inserts or replaces the record for (user, day)
	Upsert(ctx context.Context, record *models.CommitRecord) error

	// GetByUserAndDate retrieves the record for a user on one day
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*models.CommitRecord, error)

	// DeleteByUserID removes every record of a user
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users   UserAccountRepository
	Commits CommitRepository
}
