package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/repositories"
	"github.com/gromit-app/gromit/utils"
	"go.uber.org/zap"
)

// SignUpInput carries a registration request
type SignUpInput struct {
	IdentityToken  string
	Nickname       string
	GithubNickname string
}

// AuthResult is returned by sign-up, login and token refresh
type AuthResult struct {
	Registered   bool
	UserID       uuid.UUID
	Nickname     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Profile is an account together with today's commit count
type Profile struct {
	Account      *models.UserAccount
	TodayCommits int
}

// UserAccountService implements account registration and maintenance
type UserAccountService struct {
	users    repositories.UserAccountRepository
	commits  repositories.CommitRepository
	txMgr    repositories.TransactionManager
	verifier IdentityVerifier
	github   GithubAPI
	tokens   TokenIssuer
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserAccountService creates a new UserAccountService
func NewUserAccountService(
	repos *repositories.Repositories,
	txMgr repositories.TransactionManager,
	verifier IdentityVerifier,
	githubAPI GithubAPI,
	tokens TokenIssuer,
	logger *zap.Logger,
) *UserAccountService {
	return &UserAccountService{
		users:    repos.Users,
		commits:  repos.Commits,
		txMgr:    txMgr,
		verifier: verifier,
		github:   githubAPI,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateNickname checks the nickname format without touching storage
func ValidateNickname(nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return ErrBlankNickname
	}
	if !utils.IsValidNickname(nickname) {
		return ErrInvalidNickname
	}
	return nil
}

// SignUp registers a new account for a verified Apple identity
func (s *UserAccountService) SignUp(ctx context.Context, in SignUpInput) (*AuthResult, error) {
	if err := ValidateNickname(in.Nickname); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.GithubNickname) == "" {
		return nil, ErrBlankGithubNickname
	}

	identity, err := verifyIdentity(ctx, s.verifier, in.IdentityToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByProviderSubject(ctx, models.ProviderApple, identity.Subject); err == nil {
		return nil, ErrAlreadyRegistered
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, WrapInternal("failed to look up account", err)
	}

	ghUser, err := s.github.GetUser(ctx, in.GithubNickname)
	if err != nil {
		return nil, githubError(err)
	}

	if err := s.ensureNicknameFree(ctx, in.Nickname); err != nil {
		return nil, err
	}

	account := models.NewUserAccount(in.Nickname, ghUser.Login, models.ProviderApple, identity.Subject)
	pair, err := s.tokens.IssuePair(account.ID.String(), account.Authorities())
	if err != nil {
		return nil, WrapInternal("failed to issue tokens", err)
	}
	account.RefreshToken = pair.RefreshToken

	if err := s.users.Create(ctx, account); err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to create account")
	}

	s.logger.Info("user signed up",
		zap.String("user_id", account.ID.String()),
		zap.String("github_nickname", account.GithubNickname))

	return &AuthResult{
		Registered:   true,
		UserID:       account.ID,
		Nickname:     account.Nickname,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}

// CheckNickname succeeds when nickname is well-formed and unused
func (s *UserAccountService) CheckNickname(ctx context.Context, nickname string) error {
	if err := ValidateNickname(nickname); err != nil {
		return err
	}
	return s.ensureNicknameFree(ctx, nickname)
}

// GetGithubUser looks up a GitHub account by login
func (s *UserAccountService) GetGithubUser(ctx context.Context, login string) (*github.User, error) {
	if strings.TrimSpace(login) == "" {
		return nil, ErrBlankGithubNickname
	}

	user, err := s.github.GetUser(ctx, login)
	if err != nil {
		return nil, githubError(err)
	}
	return user, nil
}

// Delete soft-deletes the account and drops its commit history
func (s *UserAccountService) Delete(ctx context.Context, userID uuid.UUID) error {
	op := repositories.TxOp{Name: "delete_account", UserID: userID}
	err := s.txMgr.InTransaction(ctx, op, func(txCtx context.Context) error {
		if err := s.commits.DeleteByUserID(txCtx, userID); err != nil {
			return err
		}
		return s.users.SoftDelete(txCtx, userID, s.now().UTC())
	})
	if err != nil {
		return repositoryError(err, ErrUserNotFound, "failed to delete account")
	}

	s.logger.Info("user deleted", zap.String("user_id", userID.String()))
	return nil
}

// ReloadCommits refreshes today's commit count from GitHub
func (s *UserAccountService) ReloadCommits(ctx context.Context, userID uuid.UUID) (*models.CommitRecord, error) {
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to load account")
	}

	today := models.TruncateToDay(s.now())
	count, err := s.github.CountCommits(ctx, account.GithubNickname, today)
	if err != nil {
		return nil, githubError(err)
	}

	record := models.NewCommitRecord(account.ID, today, count)
	if err := s.commits.Upsert(ctx, record); err != nil {
		return nil, WrapInternal("failed to save commits", err)
	}

	s.logger.Debug("commits reloaded",
		zap.String("user_id", userID.String()),
		zap.Int("commit_count", count))
	return record, nil
}

// ChangeNickname renames the account
func (s *UserAccountService) ChangeNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.UserAccount, error) {
	if err := ValidateNickname(nickname); err != nil {
		return nil, err
	}

	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to load account")
	}
	if account.Nickname == nickname {
		return account, nil
	}

	if err := s.ensureNicknameFree(ctx, nickname); err != nil {
		return nil, err
	}
	if err := s.users.UpdateNickname(ctx, userID, nickname); err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to change nickname")
	}

	account.Nickname = nickname
	account.UpdatedAt = s.now().UTC()
	return account, nil
}

// Me returns the account of userID with today's commit count
func (s *UserAccountService) Me(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	account, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{Account: account}
	record, err := s.commits.GetByUserAndDate(ctx, userID, models.TruncateToDay(s.now()))
	switch {
	case err == nil:
		profile.TodayCommits = record.CommitCount
	case errors.Is(err, repositories.ErrNotFound):
	default:
		return nil, WrapInternal("failed to load commits", err)
	}
	return profile, nil
}

// GetByID returns a live account
func (s *UserAccountService) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserAccount, error) {
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to load account")
	}
	return account, nil
}

func (s *UserAccountService) ensureNicknameFree(ctx context.Context, nickname string) error {
	taken, err := s.users.ExistsByNickname(ctx, nickname)
	if err != nil {
		return WrapInternal("failed to check nickname", err)
	}
	if taken {
		return ErrDuplicateNickname
	}
	return nil
}
