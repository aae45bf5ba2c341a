package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrorTypeInternal     ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{Type: ErrorTypeValidation, Message: message}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewConflict creates a conflict error
func NewConflict(message string) error {
	return &AppError{Type: ErrorTypeConflict, Message: message}
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) error {
	return &AppError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewUnavailable marks a failed upstream dependency
func NewUnavailable(message string, err error) error {
	return &AppError{Type: ErrorTypeUnavailable, Message: message, Err: err}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or INTERNAL for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeValidation
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeNotFound
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeConflict
}

// IsUnauthorized checks if an error is an unauthorized error
func IsUnauthorized(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeUnauthorized
}

// IsUnavailable checks if an error is an upstream availability error
func IsUnavailable(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeUnavailable
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return err != nil && TypeOf(err) == ErrorTypeInternal
}
