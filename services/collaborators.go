package services

import (
	"context"
	"errors"
	"time"

	"github.com/gromit-app/gromit/apple"
	"github.com/gromit-app/gromit/github"
	"github.com/gromit-app/gromit/repositories"
	"github.com/gromit-app/gromit/token"
)

// IdentityVerifier verifies identity-provider tokens presented at sign-up and login
type IdentityVerifier interface {
	Verify(ctx context.Context, identityToken string) (*apple.Identity, error)
}

// GithubAPI is the subset of the GitHub API gromit relies on
type GithubAPI interface {
	GetUser(ctx context.Context, login string) (*github.User, error)
	CountCommits(ctx context.Context, login string, day time.Time) (int, error)
}

// TokenIssuer issues gromit access/refresh token pairs
type TokenIssuer interface {
	IssuePair(subject string, authorities []string) (*token.Pair, error)
}

// verifyIdentity maps verifier failures onto the domain taxonomy
func verifyIdentity(ctx context.Context, v IdentityVerifier, identityToken string) (*apple.Identity, error) {
	identity, err := v.Verify(ctx, identityToken)
	if err != nil {
		if errors.Is(err, apple.ErrJWKSFetchFailed) {
			return nil, Wrap(ErrAppleUnavailable, err)
		}
		return nil, Wrap(ErrInvalidIdentityToken, err)
	}
	return identity, nil
}

// githubError maps GitHub client failures onto the domain taxonomy
func githubError(err error) error {
	switch {
	case errors.Is(err, github.ErrUserNotFound):
		return Wrap(ErrGithubUserNotFound, err)
	case errors.Is(err, github.ErrUnavailable):
		return Wrap(ErrGithubUnavailable, err)
	default:
		return WrapInternal("github lookup failed", err)
	}
}

// repositoryError maps repository failures onto the domain taxonomy
func repositoryError(err error, notFound *DomainError, op string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return Wrap(notFound, err)
	case errors.Is(err, repositories.ErrDuplicateNickname):
		return Wrap(ErrDuplicateNickname, err)
	case errors.Is(err, repositories.ErrDuplicateIdentity):
		return Wrap(ErrAlreadyRegistered, err)
	default:
		return WrapInternal(op, err)
	}
}
