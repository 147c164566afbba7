package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusForbidden
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrInvalidState, ErrValidation:
		return http.StatusBadRequest
	case ErrConflict:
		return http.StatusConflict
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrUnauthorized
	ErrUnauthenticated
	ErrInvalidState
	ErrConflict
	ErrValidation
	ErrInternal
	ErrTimeout
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not_found"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrUnauthenticated:
		return "unauthenticated"
	case ErrInvalidState:
		return "invalid_state"
	case ErrConflict:
		return "conflict"
	case ErrValidation:
		return "validation"
	case ErrTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// NotFound reports a missing entity.
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// Unauthorized reports a principal that does not own or occupy the resource.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

// Unauthenticated reports a missing, invalid or expired credential.
func Unauthenticated(message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnauthenticated,
		Message: message,
		Err:     err,
	}
}

// InvalidState reports a transition that is not permitted from the current state.
func InvalidState(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidState,
		Message: message,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Err:     err,
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Timeout reports a request that ran past its deadline.
func Timeout(err error) *AppError {
	return &AppError{
		Code:    ErrTimeout,
		Message: "request timed out",
		Err:     err,
	}
}

// CodeOf returns the code of the first AppError in the chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
