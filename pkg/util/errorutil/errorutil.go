package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors. Errors holds the detail
// strings rendered in the response envelope.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Errors     []string
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// StatusCoder is implemented by errors from lower layers that know their
// own code and HTTP status without importing this package.
type StatusCoder interface {
	error
	ErrorCode() string
	HTTPStatus() int
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details ...string) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Errors: details}
}

func NewValidationError(message string, details ...string) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details...)
}

func NewNotFound(resource string, details ...string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details...)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

// NewInvalidCredentials is deliberately detail-free so callers cannot tell
// an unknown account from a wrong secret.
func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden)
}

// NewForbiddenCause keeps the underlying error for logs while the caller only
// sees the forbidden message.
func NewForbiddenCause(message string, cause error) error {
	return &DomainError{Code: "FORBIDDEN", Message: message, HTTPStatus: http.StatusForbidden, Err: cause}
}

func NewConflict(message string, details ...string) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details...)
}

func NewTooManyRequests(message string) error {
	return NewDomainError("TOO_MANY_REQUESTS", message, http.StatusTooManyRequests)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsNotFound reports whether err represents a missing row or resource.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.HTTPStatus == http.StatusNotFound
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var coder StatusCoder
	if errors.As(err, &coder) {
		return &DomainError{
			Code:       coder.ErrorCode(),
			Message:    coder.Error(),
			HTTPStatus: coder.HTTPStatus(),
			Err:        err,
		}
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &DomainError{
			Code:       "NOT_FOUND",
			Message:    "resource not found",
			HTTPStatus: http.StatusNotFound,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err into a *DomainError while keeping the error type.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
