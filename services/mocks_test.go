package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/apple"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/repositories"
	"github.com/gromit-app/gromit/token"
	"github.com/stretchr/testify/mock"
)

// MockUserAccountRepository is a mock implementation of UserAccountRepository
type MockUserAccountRepository struct {
	mock.Mock
}

func (m *MockUserAccountRepository) Create(ctx context.Context, account *models.UserAccount) error {
	return m.Called(ctx, account).Error(0)
}

func (m *MockUserAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	args := m.Called(ctx, id)
	if account := args.Get(0); account != nil {
		return account.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountRepository) GetByProviderSubject(ctx context.Context, provider models.Provider, subject string) (*models.UserAccount, error) {
	args := m.Called(ctx, provider, subject)
	if account := args.Get(0); account != nil {
		return account.(*models.UserAccount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserAccountRepository) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	args := m.Called(ctx, nickname)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserAccountRepository) UpdateNickname(ctx context.Context, id uuid.UUID, nickname string) error {
	return m.Called(ctx, id, nickname).Error(0)
}

func (m *MockUserAccountRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) error {
	return m.Called(ctx, id, refreshToken).Error(0)
}

func (m *MockUserAccountRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// MockCommitRepository is a mock implementation of CommitRepository
type MockCommitRepository struct {
	mock.Mock
}

func (m *MockCommitRepository) Upsert(ctx context.Context, record *models.CommitRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCommitRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*models.CommitRecord, error) {
	args := m.Called(ctx, userID, date)
	if record := args.Get(0); record != nil {
		return record.(*models.CommitRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCommitRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// inlineTxManager runs the function directly, with no real transaction,
// and records the units of work it was asked to run
type inlineTxManager struct {
	ops []repositories.TxOp
}

func (m *inlineTxManager) InTransaction(ctx context.Context, op repositories.TxOp, fn func(ctx context.Context) error) error {
	m.ops = append(m.ops, op)
	return fn(ctx)
}

// MockIdentityVerifier is a mock implementation of IdentityVerifier
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, identityToken string) (*apple.Identity, error) {
	args := m.Called(ctx, identityToken)
	if identity := args.Get(0); identity != nil {
		return identity.(*apple.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGithubAPI is a mock implementation of GithubAPI
type MockGithubAPI struct {
	mock.Mock
}

func (m *MockGithubAPI) GetUser(ctx context.Context, login string) (*github.User, error) {
	args := m.Called(ctx, login)
	if user := args.Get(0); user != nil {
		return user.(*github.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGithubAPI) CountCommits(ctx context.Context, login string, day time.Time) (int, error) {
	args := m.Called(ctx, login, day)
	return args.Int(0), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssuePair(subject string, authorities []string) (*token.Pair, error) {
	args := m.Called(subject, authorities)
	if pair := args.Get(0); pair != nil {
		return pair.(*token.Pair), args.Error(1)
	}
	return nil, args.Error(1)
}
