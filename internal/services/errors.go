package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ezenglish/learning-service/internal/validator"
)

// Error kinds. Every error a service returns to a handler either wraps one of
// these or is treated as internal.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal error")
)

// Response envelope codes
const (
	CodeSuccess      = 0
	CodeConflict     = -1
	CodeBadRequest   = -2
	CodeUnauthorized = -3
	CodeNotFound     = -4
	CodeInternal     = -5
)

// InternalErrorMessage is the only message clients see for unexpected failures
const InternalErrorMessage = "Internal server error"

// DomainError carries a client-safe message alongside its kind
type DomainError struct {
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newDomainError(kind error, format string, args ...any) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) *DomainError {
	return newDomainError(ErrNotFound, format, args...)
}

func NewInvalidArgumentError(format string, args ...any) *DomainError {
	return newDomainError(ErrInvalidArgument, format, args...)
}

func NewPreconditionFailedError(format string, args ...any) *DomainError {
	return newDomainError(ErrPreconditionFailed, format, args...)
}

func NewConflictError(format string, args ...any) *DomainError {
	return newDomainError(ErrConflict, format, args...)
}

func NewUnauthorizedError(format string, args ...any) *DomainError {
	return newDomainError(ErrUnauthorized, format, args...)
}

func NewForbiddenError(format string, args ...any) *DomainError {
	return newDomainError(ErrForbidden, format, args...)
}

// NewValidationError turns validator output into an InvalidArgument error
func NewValidationError(err error) *DomainError {
	return &DomainError{Kind: ErrInvalidArgument, Message: "validation failed", Err: err}
}

// ErrorStatus maps err onto its envelope code and HTTP status
func ErrorStatus(err error) (code int, status int) {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return CodeSuccess, http.StatusOK
	case errors.Is(err, ErrConflict):
		return CodeConflict, http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return CodeBadRequest, http.StatusPreconditionFailed
	case errors.Is(err, ErrInvalidArgument), errors.As(err, &verrs):
		return CodeBadRequest, http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized, http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeUnauthorized, http.StatusForbidden
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to return to a client for err
func PublicMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return "validation failed"
	}
	return InternalErrorMessage
}

// ValidationDetails extracts field errors for the response body, if any
func ValidationDetails(err error) validator.ValidationErrors {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return verrs
	}
	return nil
}
