// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrSessionInvalid      = errors.New("session invalid")
	ErrSessionExpired      = errors.New("session expired")
	ErrSessionRevoked      = errors.New("session revoked")
	ErrQuotaExceeded       = errors.New("usage quota exceeded")
	ErrGenerationFailed    = errors.New("generation failed")
	ErrMalformedGeneration = errors.New("malformed generation")
	ErrAIUnavailable       = errors.New("ai features unavailable")
	ErrBillingUnavailable  = errors.New("billing unavailable")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Details    any
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

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// QuotaError reports the ledger figures behind a rejected request.
type QuotaError struct {
	Plan      string
	Used      int
	Limit     int
	Remaining int
	Requested int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf(
		"usage quota exceeded: used %d of %d, requested %d",
		e.Used,
		e.Limit,
		e.Requested,
	)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func ValidationError(details any) *AppError {
	return NewAppError(
		ErrInvalidInput,
		"validation failed",
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	).WithDetails(details)
}

func SessionExpiredError() *AppError {
	return NewAppError(
		ErrSessionExpired,
		"session has expired",
		http.StatusUnauthorized,
		"SESSION_EXPIRED",
	)
}

func SessionRevokedError() *AppError {
	return NewAppError(
		ErrSessionRevoked,
		"session has been revoked",
		http.StatusUnauthorized,
		"SESSION_REVOKED",
	)
}

func SessionInvalidError() *AppError {
	return NewAppError(
		ErrSessionInvalid,
		"invalid session",
		http.StatusUnauthorized,
		"SESSION_INVALID",
	)
}

func QuotaExceededError(q *QuotaError) *AppError {
	return NewAppError(
		q,
		"usage quota exhausted, upgrade your plan to continue",
		http.StatusForbidden,
		"QUOTA_EXCEEDED",
	).WithDetails(map[string]any{
		"plan":      q.Plan,
		"used":      q.Used,
		"limit":     q.Limit,
		"remaining": q.Remaining,
		"requested": q.Requested,
	})
}

func GenerationFailedError() *AppError {
	return NewAppError(
		ErrGenerationFailed,
		"content generation failed, please try again",
		http.StatusInternalServerError,
		"GENERATION_FAILED",
	)
}

func MalformedGenerationError() *AppError {
	return NewAppError(
		ErrMalformedGeneration,
		"content generation returned an unusable result, please try again",
		http.StatusInternalServerError,
		"MALFORMED_GENERATION",
	)
}

func AIUnavailableError() *AppError {
	return NewAppError(
		ErrAIUnavailable,
		"AI features are not configured",
		http.StatusServiceUnavailable,
		"AI_UNAVAILABLE",
	)
}

func BillingUnavailableError() *AppError {
	return NewAppError(
		ErrBillingUnavailable,
		"online billing is not configured",
		http.StatusServiceUnavailable,
		"BILLING_UNAVAILABLE",
	)
}
