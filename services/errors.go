package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError with the same type and message, so wrapped
// sentinels still compare equal with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

var (
	// Authentication
	ErrInvalidAccessToken     = NewDomainError(ErrorTypeUnauthorized, "invalid access token", nil)
	ErrInvalidRefreshToken    = NewDomainError(ErrorTypeUnauthorized, "invalid refresh token", nil)
	ErrAuthenticationRequired = NewDomainError(ErrorTypeUnauthorized, "authentication required", nil)
	ErrInvalidIdentityToken   = NewDomainError(ErrorTypeUnauthorized, "invalid identity token", nil)

	// Authorization
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	// Not found
	ErrUserNotFound       = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrGithubUserNotFound = NewDomainError(ErrorTypeNotFound, "github user not found", nil)
	ErrRouteNotFound      = NewDomainError(ErrorTypeNotFound, "resource not found", nil)

	// Validation
	ErrBlankNickname       = NewDomainError(ErrorTypeValidation, "please enter a nickname", nil)
	ErrInvalidNickname     = NewDomainError(ErrorTypeValidation, "nickname must be 1-8 letters, digits or Hangul", nil)
	ErrBlankGithubNickname = NewDomainError(ErrorTypeValidation, "please enter a github nickname", nil)
	ErrMalformedBody       = NewDomainError(ErrorTypeValidation, "malformed request body", nil)
	ErrMethodNotAllowed    = NewDomainError(ErrorTypeValidation, "method not allowed", nil)

	// Conflict
	ErrDuplicateNickname = NewDomainError(ErrorTypeConflict, "nickname already in use", nil)
	ErrAlreadyRegistered = NewDomainError(ErrorTypeConflict, "account already registered", nil)

	// Upstream
	ErrGithubUnavailable = NewDomainError(ErrorTypeExternal, "github is unavailable", nil)
	ErrAppleUnavailable  = NewDomainError(ErrorTypeExternal, "apple identity service is unavailable", nil)

	// Internal
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

func hasType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool { return hasType(err, ErrorTypeForbidden) }

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool { return hasType(err, ErrorTypeConflict) }

// IsExternalError checks if an error is an upstream provider error
func IsExternalError(err error) bool { return hasType(err, ErrorTypeExternal) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// PublicMessage returns the client-safe message of a domain error.
func PublicMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ErrInternal.Message
}

// Wrap returns a copy of sentinel carrying cause, so errors.Is(result, sentinel) holds.
func Wrap(sentinel *DomainError, cause error) error {
	return NewDomainError(sentinel.Type, sentinel.Message, cause)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapExternal wraps an error as an external provider error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, message, err)
}

// NewValidationError creates a validation error with a client-facing message
func NewValidationError(message string) error {
	return NewDomainError(ErrorTypeValidation, message, nil)
}
