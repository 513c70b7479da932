package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is the singleton validator instance
	validate *validator.Validate

	// nicknameRegex accepts 1 to 8 ASCII letters, digits or Hangul syllables
	nicknameRegex = regexp.MustCompile(`^[0-9a-zA-Z가-힣]{1,8}$`)

	// fieldMessages overrides the generic message for a field/tag pair
	fieldMessages = map[string]string{
		"nickname.required":        "please enter a nickname",
		"nickname.nickname":        "nickname must be 1-8 letters, digits or Hangul",
		"github_nickname.required": "please enter a github nickname",
		"identity_token.required":  "identity token is required",
	}
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so messages match the request body
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := validate.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
		return IsValidNickname(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register nickname validation: %v", err))
	}
}

// IsValidNickname reports whether s satisfies the nickname format
func IsValidNickname(s string) bool {
	return nicknameRegex.MatchString(s)
}

// FieldError is a single failed rule on a request field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError wraps validation errors in declaration order
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.First()
}

// First returns the message of the first failed field
func (e *ValidationError) First() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return e.Fields[0].Message
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, FieldError{
			Field:   err.Field(),
			Message: messageFor(err),
		})
	}
	return &ValidationError{Fields: fields}
}

func messageFor(err validator.FieldError) string {
	field := err.Field()
	if msg, ok := fieldMessages[field+"."+err.Tag()]; ok {
		return msg
	}

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, err.Param())
	default:
		return fmt.Sprintf("%s validation failed on '%s' tag", field, err.Tag())
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// FirstValidationMessage returns the first field message of a ValidationError
func FirstValidationMessage(err error) (string, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.First(), true
	}
	return "", false
}
