package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gromit-app/gromit/models"
	"github.com/gromit-app/gromit/repositories"
	"go.uber.org/zap"
)

// LoginService exchanges identity-provider tokens and refresh tokens for gromit tokens
type LoginService struct {
	users    repositories.UserAccountRepository
	verifier IdentityVerifier
	tokens   TokenIssuer
	logger   *zap.Logger
}

// NewLoginService creates a new LoginService
func NewLoginService(users repositories.UserAccountRepository, verifier IdentityVerifier, tokens TokenIssuer, logger *zap.Logger) *LoginService {
	return &LoginService{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
		logger:   logger,
	}
}

// AppleLogin logs in a registered Apple identity. An unknown identity is not
// an error: the result reports Registered=false so the client can sign up.
func (s *LoginService) AppleLogin(ctx context.Context, identityToken string) (*AuthResult, error) {
	identity, err := verifyIdentity(ctx, s.verifier, identityToken)
	if err != nil {
		return nil, err
	}

	account, err := s.users.GetByProviderSubject(ctx, models.ProviderApple, identity.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &AuthResult{Registered: false}, nil
		}
		return nil, WrapInternal("failed to look up account", err)
	}

	result, err := s.issue(ctx, account)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", account.ID.String()))
	return result, nil
}

// Refresh rotates the token pair of userID. When the request was
// authenticated by a refresh token, presented must be the one last issued.
func (s *LoginService) Refresh(ctx context.Context, userID uuid.UUID, presented string) (*AuthResult, error) {
	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, Wrap(ErrInvalidRefreshToken, err)
		}
		return nil, WrapInternal("failed to load account", err)
	}

	if presented != "" && presented != account.RefreshToken {
		s.logger.Warn("superseded refresh token presented", zap.String("user_id", userID.String()))
		return nil, ErrInvalidRefreshToken
	}

	return s.issue(ctx, account)
}

func (s *LoginService) issue(ctx context.Context, account *models.UserAccount) (*AuthResult, error) {
	pair, err := s.tokens.IssuePair(account.ID.String(), account.Authorities())
	if err != nil {
		return nil, WrapInternal("failed to issue tokens", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, repositoryError(err, ErrUserNotFound, "failed to store refresh token")
	}

	return &AuthResult{
		Registered:   true,
		UserID:       account.ID,
		Nickname:     account.Nickname,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	}, nil
}
