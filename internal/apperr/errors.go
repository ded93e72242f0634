// Package apperr provides the structured error type surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is the stable machine-readable error identifier sent to clients.
type ErrorCode string

const (
	ErrCodeInvalidJSON  ErrorCode = "invalid_json"
	ErrCodeInvalidInput ErrorCode = "invalid_input"
	ErrCodeNotFound     ErrorCode = "not_found"
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	ErrCodeForbidden    ErrorCode = "forbidden"
	ErrCodeAuthFailed   ErrorCode = "auth_failed"

	ErrCodeListingsFetchFailed ErrorCode = "listings_fetch_failed"
	ErrCodeReviewsFetchFailed  ErrorCode = "reviews_fetch_failed"
	ErrCodeListingWriteFailed  ErrorCode = "listing_write_failed"
	ErrCodeReviewWriteFailed   ErrorCode = "review_write_failed"
	ErrCodeInquiryWriteFailed  ErrorCode = "inquiry_write_failed"
	ErrCodeFavoritesFailed     ErrorCode = "favorites_unavailable"
	ErrCodeSessionFailed       ErrorCode = "session_unavailable"
	ErrCodeInternal            ErrorCode = "internal_error"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"error"`
	Message   string    `json:"message"`
	Details   string    `json:"detail,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// Status maps the code onto an HTTP status.
func (e *StandardError) Status() int {
	switch e.Code {
	case ErrCodeInvalidJSON, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeAuthFailed:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeListingsFetchFailed, ErrCodeReviewsFetchFailed,
		ErrCodeListingWriteFailed, ErrCodeReviewWriteFailed, ErrCodeInquiryWriteFailed:
		return http.StatusBadGateway
	case ErrCodeFavoritesFailed, ErrCodeSessionFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func New(code ErrorCode, message string, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func NewInvalidInputError(details string) *StandardError {
	e := New(ErrCodeInvalidInput, "Request failed validation", nil)
	e.Details = details
	return e
}

func NewNotFoundError(what string) *StandardError {
	e := New(ErrCodeNotFound, "Resource not found", nil)
	e.Details = what
	return e
}

func NewUnauthorizedError(details string) *StandardError {
	e := New(ErrCodeUnauthorized, "Sign in required", nil)
	e.Details = details
	return e
}

func NewForbiddenError(details string) *StandardError {
	e := New(ErrCodeForbidden, "Not allowed for this user", nil)
	e.Details = details
	return e
}

func NewListingsFetchFailedError(err error) *StandardError {
	return New(ErrCodeListingsFetchFailed, "Could not load listings", err)
}

func NewReviewsFetchFailedError(err error) *StandardError {
	return New(ErrCodeReviewsFetchFailed, "Could not load reviews", err)
}

func NewListingWriteFailedError(err error) *StandardError {
	return New(ErrCodeListingWriteFailed, "Could not save listing", err)
}

func NewReviewWriteFailedError(err error) *StandardError {
	return New(ErrCodeReviewWriteFailed, "Could not save review", err)
}

func NewInquiryWriteFailedError(err error) *StandardError {
	return New(ErrCodeInquiryWriteFailed, "Could not send inquiry", err)
}

func NewFavoritesFailedError(err error) *StandardError {
	return New(ErrCodeFavoritesFailed, "Favorites are unavailable", err)
}

func NewAuthFailedError(err error) *StandardError {
	return New(ErrCodeAuthFailed, "Authentication failed", err)
}

func NewSessionFailedError(err error) *StandardError {
	return New(ErrCodeSessionFailed, "Session store unavailable", err)
}

var retryableCodes = map[ErrorCode]bool{
	ErrCodeListingsFetchFailed: true,
	ErrCodeReviewsFetchFailed:  true,
	ErrCodeListingWriteFailed:  true,
	ErrCodeReviewWriteFailed:   true,
	ErrCodeInquiryWriteFailed:  true,
	ErrCodeFavoritesFailed:     true,
	ErrCodeSessionFailed:       true,
}

func IsRetryableErrorCode(code ErrorCode) bool { return retryableCodes[code] }

// As extracts a StandardError from err; anything else becomes internal_error.
func As(err error) *StandardError {
	var se *StandardError
	if errors.As(err, &se) {
		return se
	}
	return New(ErrCodeInternal, "Unexpected error", err)
}
