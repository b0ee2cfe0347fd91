package helpers

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindInvalidState
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}

// HTTPStatus maps an error kind to the status code returned to clients.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidState:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// AppError carries a client-safe message and the kind used for the response code.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *AppError {
	return newError(KindValidation, format, args...)
}

func Unauthorized(format string, args ...interface{}) *AppError {
	return newError(KindUnauthorized, format, args...)
}

func Forbidden(format string, args ...interface{}) *AppError {
	return newError(KindForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *AppError {
	return newError(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *AppError {
	return newError(KindConflict, format, args...)
}

func InvalidState(format string, args ...interface{}) *AppError {
	return newError(KindInvalidState, format, args...)
}

func Unavailable(format string, args ...interface{}) *AppError {
	return newError(KindUnavailable, format, args...)
}

// Internal wraps an unexpected failure; msg is what the client sees.
func Internal(msg string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
