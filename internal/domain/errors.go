package domain

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeExpiredToken       ErrorCode = "EXPIRED_TOKEN"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePasswordMismatch ErrorCode = "PASSWORD_MISMATCH"

	// Email confirmation & password reset
	ErrCodeConfirmationInvalid  ErrorCode = "CONFIRMATION_INVALID"
	ErrCodeConfirmationExpired  ErrorCode = "CONFIRMATION_EXPIRED"
	ErrCodeResendCooldown       ErrorCode = "RESEND_COOLDOWN"
	ErrCodeEmailNotVerified     ErrorCode = "EMAIL_NOT_VERIFIED"
	ErrCodeEmailAlreadyVerified ErrorCode = "EMAIL_ALREADY_VERIFIED"
	ErrCodeResetTokenInvalid    ErrorCode = "RESET_TOKEN_INVALID"

	// Social login
	ErrCodeSocialAuthFailed ErrorCode = "SOCIAL_AUTH_FAILED"

	// Resource
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeUserNotFound  ErrorCode = "USER_NOT_FOUND"

	// External Services
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
	ErrCodeRedisError       ErrorCode = "REDIS_ERROR"
	ErrCodeExternalAPIError ErrorCode = "EXTERNAL_API_ERROR"

	// System
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

type AppError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	StatusCode int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so sentinel values work with errors.Is
// after WithDetails or WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

func NewAppError(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails returns a copy of e carrying details. Sentinels are shared
// between requests and must not be mutated.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithError returns a copy of e wrapping err.
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Common errors
var (
	ErrUnauthorized = NewAppError(
		ErrCodeUnauthorized,
		"Authentication credentials were not provided",
		http.StatusUnauthorized,
	)

	ErrInvalidToken = NewAppError(
		ErrCodeInvalidToken,
		"Invalid or malformed token",
		http.StatusUnauthorized,
	)

	ErrExpiredToken = NewAppError(
		ErrCodeExpiredToken,
		"Token has expired",
		http.StatusUnauthorized,
	)

	ErrInvalidCredentials = NewAppError(
		ErrCodeInvalidCredentials,
		"Invalid email or password",
		http.StatusUnauthorized,
	)

	ErrEmailNotVerified = NewAppError(
		ErrCodeEmailNotVerified,
		"Email not verified. Please verify your email first.",
		http.StatusForbidden,
	)

	ErrEmailAlreadyVerified = NewAppError(
		ErrCodeEmailAlreadyVerified,
		"Email is already verified.",
		http.StatusBadRequest,
	)

	ErrValidationFailed = NewAppError(
		ErrCodeValidationFailed,
		"Validation failed",
		http.StatusBadRequest,
	)

	ErrPasswordMismatch = NewAppError(
		ErrCodePasswordMismatch,
		"The two password fields didn't match.",
		http.StatusBadRequest,
	)

	ErrConfirmationInvalid = NewAppError(
		ErrCodeConfirmationInvalid,
		"Invalid or already used confirmation key.",
		http.StatusNotFound,
	)

	ErrConfirmationExpired = NewAppError(
		ErrCodeConfirmationExpired,
		"Confirmation key has expired. Please request a new one.",
		http.StatusBadRequest,
	)

	ErrResendCooldown = NewAppError(
		ErrCodeResendCooldown,
		"Confirmation email was recently sent. Please wait before requesting another.",
		http.StatusTooManyRequests,
	)

	ErrResetTokenInvalid = NewAppError(
		ErrCodeResetTokenInvalid,
		"Invalid value for uid or token.",
		http.StatusBadRequest,
	)

	ErrSocialAuthFailed = NewAppError(
		ErrCodeSocialAuthFailed,
		"Social authentication failed",
		http.StatusBadRequest,
	)

	ErrNotFound = NewAppError(
		ErrCodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrUserNotFound = NewAppError(
		ErrCodeUserNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrAlreadyExists = NewAppError(
		ErrCodeAlreadyExists,
		"Resource already exists",
		http.StatusConflict,
	)

	ErrDatabaseError = NewAppError(
		ErrCodeDatabaseError,
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrRedisError = NewAppError(
		ErrCodeRedisError,
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrExternalAPI = NewAppError(
		ErrCodeExternalAPIError,
		"External service request failed",
		http.StatusBadGateway,
	)

	ErrInternal = NewAppError(
		ErrCodeInternal,
		"Internal server error",
		http.StatusInternalServerError,
	)

	ErrRateLimitExceeded = NewAppError(
		ErrCodeRateLimitExceeded,
		"Request was throttled",
		http.StatusTooManyRequests,
	)
)
