package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound         = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden        = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized     = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict         = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation       = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal         = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrStoreUnavailable = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "backing store unavailable")
	ErrPersistence      = New("PERSISTENCE_ERROR", http.StatusBadGateway, "persistence operation failed")
	ErrDatasetPublished = New("DATASET_PUBLISHED", http.StatusConflict, "dataset is published and read-only")
	ErrSessionExpired   = New("SESSION_EXPIRED", http.StatusGone, "browsing session expired")
	ErrCacheMiss        = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrTooManyItems     = New("TOO_MANY_ITEMS", http.StatusRequestEntityTooLarge, "too many files requested")
	ErrContentTooLarge  = New("CONTENT_TOO_LARGE", http.StatusRequestEntityTooLarge, "requested content too large")
)

// TooManyItems reports that a packaging request exceeds the declared file
// count limit. Limit and requested count are both surfaced to the user.
func TooManyItems(limit, requested int) *Error {
	return Clone(ErrTooManyItems, fmt.Sprintf("%d files requested, limit is %d", requested, limit))
}

// ContentTooLarge reports that a packaging request exceeds the declared
// aggregate byte size limit.
func ContentTooLarge(limit, requested int64) *Error {
	return Clone(ErrContentTooLarge, fmt.Sprintf("%d bytes requested, limit is %d", requested, limit))
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err carries the same error code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == target.Code
}
