package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name:    "error with wrapped error",
			err:     NewDomainError(ErrorTypeNotFound, "user not found", errors.New("db error")),
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name:    "error without wrapped error",
			err:     NewDomainError(ErrorTypeValidation, "invalid input", nil),
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
	assert.ErrorIs(t, domainErr, baseErr)
}

func TestDomainError_Is(t *testing.T) {
	wrapped := Wrap(ErrGithubUnavailable, errors.New("dial tcp: timeout"))

	assert.ErrorIs(t, wrapped, ErrGithubUnavailable)
	assert.NotErrorIs(t, wrapped, ErrAppleUnavailable)
	assert.ErrorIs(t, fmt.Errorf("reload: %w", ErrUserNotFound), ErrUserNotFound)
}

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		err   error
		check func(error) bool
	}{
		{ErrUserNotFound, IsNotFoundError},
		{ErrInvalidNickname, IsValidationError},
		{ErrInvalidAccessToken, IsUnauthorizedError},
		{ErrInvalidRefreshToken, IsUnauthorizedError},
		{ErrForbidden, IsForbiddenError},
		{ErrDuplicateNickname, IsConflictError},
		{ErrGithubUnavailable, IsExternalError},
		{ErrInternal, IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("context: %w", tt.err)))
		})
	}

	assert.False(t, IsNotFoundError(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
	assert.Equal(t, ErrorTypeConflict, GetErrorType(ErrDuplicateNickname))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "invalid access token", PublicMessage(ErrInvalidAccessToken))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "nickname already in use", PublicMessage(fmt.Errorf("signup: %w", ErrDuplicateNickname)))
}
