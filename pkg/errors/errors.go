package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Authentication errors
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUsernameNotFound   ErrorCode = "USERNAME_NOT_FOUND"

	// User/Account errors
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserSecurityNotFound ErrorCode = "USER_SECURITY_NOT_FOUND"
	ErrCodeUserDisabled         ErrorCode = "USER_DISABLED"
	ErrCodeEmailAlreadyUsed     ErrorCode = "EMAIL_ALREADY_USED"

	// Single-use token errors
	ErrCodeSingleUseTokenNotFound ErrorCode = "SINGLE_USE_TOKEN_NOT_FOUND"
	ErrCodeSingleUseTokenExpired  ErrorCode = "SINGLE_USE_TOKEN_EXPIRED"

	// Device errors
	ErrCodeUserDeviceNotFound      ErrorCode = "USER_DEVICE_NOT_FOUND"
	ErrCodeUserDeviceNotAuthorized ErrorCode = "USER_DEVICE_NOT_AUTHORIZED"
)

// Domain errors shared by the account and device trust services.
// Compare with errors.Is: any *Error carrying the same code matches.
var (
	ErrUserNotFound            = New(ErrCodeUserNotFound, "user not found")
	ErrUserSecurityNotFound    = New(ErrCodeUserSecurityNotFound, "user security not found")
	ErrUsernameNotFound        = New(ErrCodeUsernameNotFound, "invalid username or password")
	ErrUserDeviceNotFound      = New(ErrCodeUserDeviceNotFound, "user device not found")
	ErrUserDeviceNotAuthorized = New(ErrCodeUserDeviceNotAuthorized, "user device not authorized")
	ErrSingleUseTokenNotFound  = New(ErrCodeSingleUseTokenNotFound, "single use token not found")
	ErrSingleUseTokenExpired   = New(ErrCodeSingleUseTokenExpired, "single use token expired")
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error with the detail added.
// The receiver is left untouched so package-level sentinels stay immutable.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{Code: e.Code, Message: e.Message, Details: details, Err: e.Err}
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest

	case ErrCodeUnauthorized, ErrCodeInvalidCredentials, ErrCodeUsernameNotFound,
		ErrCodeSingleUseTokenExpired:
		return http.StatusUnauthorized

	case ErrCodeForbidden, ErrCodeUserDisabled, ErrCodeUserDeviceNotAuthorized:
		return http.StatusForbidden

	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeUserSecurityNotFound,
		ErrCodeUserDeviceNotFound, ErrCodeSingleUseTokenNotFound:
		return http.StatusNotFound

	case ErrCodeEmailAlreadyUsed:
		return http.StatusConflict

	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// InvalidInput creates an "invalid input" error
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason))
}

// Unauthorized creates an "unauthorized" error
func Unauthorized(message string) *Error {
	return New(ErrCodeUnauthorized, message)
}

// Forbidden creates a "forbidden" error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}
