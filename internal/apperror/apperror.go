// Package apperror defines the error categories surfaced by the service layer
// and how each one maps onto an HTTP response.
package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorType is the category of an application error.
type ErrorType int

const (
	// InternalError is for unexpected failures with no better category.
	InternalError ErrorType = iota
	// ValidationError is malformed or missing input. Never retried.
	ValidationError
	// ConflictError is a uniqueness violation.
	ConflictError
	// AuthenticationError is a bad credential.
	AuthenticationError
	// EmailNotVerifiedError is a correct credential for an account that has
	// not confirmed its email yet.
	EmailNotVerifiedError
	// ForbiddenError is an authenticated caller lacking a capability.
	ForbiddenError
	// NotFoundError is an unknown id, or an id not owned by the caller.
	NotFoundError
	// StateError is an operation that is invalid for the entity's current state.
	StateError
	// DependencyError is a failure of the notifier or the store.
	DependencyError
)

// AppError carries a client-safe message and an optional underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for the error type.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, StateError:
		return fiber.StatusBadRequest
	case ConflictError:
		return fiber.StatusConflict
	case AuthenticationError:
		return fiber.StatusUnauthorized
	case EmailNotVerifiedError, ForbiddenError:
		return fiber.StatusForbidden
	case NotFoundError:
		return fiber.StatusNotFound
	case DependencyError:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Public reports whether Message may be shown to the client as is.
func (e *AppError) Public() bool {
	return e.Type != InternalError && e.Type != DependencyError
}

func newError(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

// Validation creates a ValidationError.
func Validation(message string) *AppError { return newError(ValidationError, message, nil) }

// Conflict creates a ConflictError.
func Conflict(message string, err error) *AppError { return newError(ConflictError, message, err) }

// Authentication creates an AuthenticationError.
func Authentication(message string) *AppError { return newError(AuthenticationError, message, nil) }

// EmailNotVerified creates an EmailNotVerifiedError.
func EmailNotVerified(message string) *AppError {
	return newError(EmailNotVerifiedError, message, nil)
}

// Forbidden creates a ForbiddenError.
func Forbidden(message string) *AppError { return newError(ForbiddenError, message, nil) }

// NotFound creates a NotFoundError.
func NotFound(message string, err error) *AppError { return newError(NotFoundError, message, err) }

// State creates a StateError.
func State(message string, err error) *AppError { return newError(StateError, message, err) }

// Dependency creates a DependencyError.
func Dependency(message string, err error) *AppError { return newError(DependencyError, message, err) }

// Internal creates an InternalError.
func Internal(message string, err error) *AppError { return newError(InternalError, message, err) }

// TypeOf returns the ErrorType of the first AppError in err's chain, or
// InternalError when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return InternalError
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
