package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured indicates a collaborator is missing required settings
	ErrNotConfigured = errors.New("not configured")

	// ErrProviderRejected indicates the email provider refused the message
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrProviderUnavailable indicates the email provider could not be reached
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// InvalidInputError creates an invalid input error with context
func InvalidInputError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrInvalidInput)
}

// NotConfiguredError names the missing setting
func NotConfiguredError(setting string) error {
	return fmt.Errorf("%s %w", setting, ErrNotConfigured)
}

// ProviderRejectedError carries the provider's own message
func ProviderRejectedError(provider, message string) error {
	return fmt.Errorf("%s: %s: %w", provider, message, ErrProviderRejected)
}

// ProviderUnavailableError wraps a transport failure
func ProviderUnavailableError(provider string, cause error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrProviderUnavailable, cause)
}

// InternalError marks cause as an internal failure
func InternalError(msg string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", msg, ErrInternal)
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrInternal, cause)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}
