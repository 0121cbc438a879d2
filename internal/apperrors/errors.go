package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// Code is the stable, machine readable identifier of a failure.
type Code string

const (
	CodeInternal       Code = "INTERNAL"
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeDuplicate      Code = "DUPLICATE"
	CodeInvalidState   Code = "INVALID_STATE"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeTooManyRequest Code = "TOO_MANY_REQUESTS"

	// Ledger
	CodeInsufficientFunds     Code = "INSUFFICIENT_FUNDS"
	CodeInvalidAmount         Code = "INVALID_AMOUNT"
	CodeInvalidFinalizeAmount Code = "INVALID_FINALIZE_AMOUNT"
	CodeReservationNotFound   Code = "RESERVATION_NOT_FOUND"

	// Referral
	CodeInvalidCode       Code = "INVALID_CODE"
	CodeSelfReferral      Code = "SELF_REFERRAL"
	CodeCodeExpired       Code = "CODE_EXPIRED"
	CodeMaxUsesReached    Code = "MAX_USES_REACHED"
	CodeAlreadyBound      Code = "ALREADY_BOUND"
	CodeAttributionLocked Code = "ATTRIBUTION_LOCKED"

	// Payout
	CodeMinimumNotMet       Code = "MINIMUM_NOT_MET"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeKYCRequired         Code = "KYC_REQUIRED"
)

// MetaRequiredKYCLevel is the Meta key carrying the tier a KYC_REQUIRED failure asks for.
const MetaRequiredKYCLevel = "requiredKycLevel"

// AppError is a structured, caller-recoverable failure.
// Two AppErrors match under errors.Is when their codes are equal.
type AppError struct {
	Status  int               `json:"-"`
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// WithMeta returns a copy of e with key set in its metadata.
func (e *AppError) WithMeta(key, value string) *AppError {
	cp := *e
	cp.Meta = make(map[string]string, len(e.Meta)+1)
	for k, v := range e.Meta {
		cp.Meta[k] = v
	}
	cp.Meta[key] = value
	return &cp
}

func newCoded(status int, code Code, message string) *AppError {
	return &AppError{Status: status, Code: code, Message: message}
}

// Typed failures returned by the services. Compare with errors.Is.
var (
	ErrInsufficientFunds     = newCoded(http.StatusUnprocessableEntity, CodeInsufficientFunds, "insufficient funds")
	ErrInvalidAmount         = newCoded(http.StatusBadRequest, CodeInvalidAmount, "amount must be positive")
	ErrInvalidFinalizeAmount = newCoded(http.StatusBadRequest, CodeInvalidFinalizeAmount, "finalize amount exceeds reserved amount")
	ErrReservationNotFound   = newCoded(http.StatusNotFound, CodeReservationNotFound, "reservation not found or no longer pending")

	ErrInvalidCode       = newCoded(http.StatusBadRequest, CodeInvalidCode, "referral code is not valid")
	ErrSelfReferral      = newCoded(http.StatusBadRequest, CodeSelfReferral, "an account cannot refer itself")
	ErrCodeExpired       = newCoded(http.StatusBadRequest, CodeCodeExpired, "referral code has expired")
	ErrMaxUsesReached    = newCoded(http.StatusConflict, CodeMaxUsesReached, "referral code has reached its maximum uses")
	ErrAlreadyBound      = newCoded(http.StatusConflict, CodeAlreadyBound, "account is already bound to a referrer")
	ErrAttributionLocked = newCoded(http.StatusConflict, CodeAttributionLocked, "attribution is locked by an issued bonus")

	ErrMinimumNotMet       = newCoded(http.StatusBadRequest, CodeMinimumNotMet, "payout amount is below the minimum")
	ErrInsufficientBalance = newCoded(http.StatusUnprocessableEntity, CodeInsufficientBalance, "payout amount exceeds withdrawable balance")
	ErrRateLimited         = newCoded(http.StatusTooManyRequests, CodeRateLimited, "a payout was already requested within the rate limit window")
	ErrKYCRequired         = newCoded(http.StatusForbidden, CodeKYCRequired, "identity verification required")

	ErrResourceNotFound = newCoded(http.StatusNotFound, CodeNotFound, "resource not found")
	ErrInvalidState     = newCoded(http.StatusConflict, CodeInvalidState, "resource is not in a state that allows this operation")
)

// KYCRequired builds a KYC_REQUIRED failure naming the tier that must be reached.
func KYCRequired(level string) *AppError {
	return ErrKYCRequired.
		WithMessage("identity verification level %q required", level).
		WithMeta(MetaRequiredKYCLevel, level)
}

// RequiredKYCLevel extracts the tier from a KYC_REQUIRED failure.
func RequiredKYCLevel(err error) (string, bool) {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeKYCRequired {
		return "", false
	}
	level, ok := appErr.Meta[MetaRequiredKYCLevel]
	return level, ok
}

// NewAppError wraps an unexpected failure with an HTTP status and a message.
func NewAppError(status int, message string, err error) *AppError {
	code := CodeInternal
	switch status {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusBadRequest:
		code = CodeValidation
	case http.StatusConflict:
		code = CodeDuplicate
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusTooManyRequests:
		code = CodeTooManyRequest
	}
	return &AppError{Status: status, Code: code, Message: message, Err: err}
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Err: ErrValidation}
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message, Err: ErrNotFound}
}

// NewInternalServerError reports an unexpected failure.
func NewInternalServerError(message string) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: message}
}

// AsAppError converts any error into an AppError, mapping the plain sentinels.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, ErrValidation):
		return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: err.Error(), Err: err}
	case errors.Is(err, ErrDuplicate):
		return &AppError{Status: http.StatusConflict, Code: CodeDuplicate, Message: err.Error(), Err: err}
	}
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error", Err: err}
}
