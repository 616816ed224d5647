package idmerr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a failure class across all packages.
type ErrorCode string

const (
	// Generic errors
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeConflict      ErrorCode = "CONFLICT"

	// Authentication errors. Always reported generically so callers
	// cannot enumerate which factor failed.
	ErrCodeAuthFailed         ErrorCode = "AUTH_FAILED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeExternalAccount    ErrorCode = "EXTERNAL_ACCOUNT"

	// Authorization errors
	ErrCodeForbidden               ErrorCode = "FORBIDDEN"
	ErrCodeTenantNotActive         ErrorCode = "TENANT_NOT_ACTIVE"
	ErrCodeTenantAccessDenied      ErrorCode = "TENANT_ACCESS_DENIED"
	ErrCodeUnassignedPrincipal     ErrorCode = "UNASSIGNED_PRINCIPAL"
	ErrCodeRoleElevationDenied     ErrorCode = "ROLE_ELEVATION_DENIED"
	ErrCodeCrossTenantDenied       ErrorCode = "CROSS_TENANT_DENIED"
	ErrCodeProvisioningDenied      ErrorCode = "PROVISIONING_DENIED"
	ErrCodeDomainMismatch          ErrorCode = "DOMAIN_MISMATCH"
	ErrCodeInternalUserTenantBound ErrorCode = "INTERNAL_USER_CANNOT_HAVE_TENANT"
	ErrCodeTenantReferenceDangling ErrorCode = "TENANT_REFERENCE_DANGLING"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInsufficientPermissions ErrorCode = "INSUFFICIENT_PERMISSIONS"

	// Resource errors
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"
	ErrCodeTenantNotFound    ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeDomainTaken       ErrorCode = "DOMAIN_ALREADY_REGISTERED"
	ErrCodeUserDisabled      ErrorCode = "USER_DISABLED"
)

// Error is a structured error carrying a stable code, a human-readable
// message, and an optional wrapped cause.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status this error maps to.
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// IsCode checks whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from err, defaulting to ErrCodeInternal
// for unstructured errors.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes.
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeInvalidStatusTransition,
		ErrCodeDomainMismatch, ErrCodeInternalUserTenantBound:
		return http.StatusBadRequest

	case ErrCodeAuthFailed, ErrCodeInvalidCredentials, ErrCodeTokenInvalid,
		ErrCodeExternalAccount:
		return http.StatusUnauthorized

	case ErrCodeForbidden, ErrCodeTenantNotActive, ErrCodeTenantAccessDenied,
		ErrCodeUnassignedPrincipal, ErrCodeRoleElevationDenied,
		ErrCodeCrossTenantDenied, ErrCodeProvisioningDenied,
		ErrCodeTenantReferenceDangling, ErrCodeInsufficientPermissions,
		ErrCodeUserDisabled:
		return http.StatusForbidden

	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeTenantNotFound:
		return http.StatusNotFound

	case ErrCodeConflict, ErrCodeAlreadyExists, ErrCodeUserAlreadyExists,
		ErrCodeDomainTaken:
		return http.StatusConflict

	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Common constructors.

// NotFound creates a "not found" error.
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier)
}

// AlreadyExists creates an "already exists" error.
func AlreadyExists(resourceType, identifier string) *Error {
	return Newf(ErrCodeAlreadyExists, "%s already exists: %s", resourceType, identifier)
}

// InvalidInput creates an "invalid input" error.
func InvalidInput(field, reason string) *Error {
	return Newf(ErrCodeInvalidInput, "invalid %s: %s", field, reason)
}

// Forbidden creates a "forbidden" error.
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// Internal creates an "internal error".
func Internal(message string) *Error {
	return New(ErrCodeInternal, message)
}

// InternalWrap wraps an unexpected persistence or infrastructure failure.
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}
