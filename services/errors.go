package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of an error. Transport layers map
// categories to responses.
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// ErrorKind identifies the exact failure inside a category.
type ErrorKind string

const (
	KindUserNotFound       ErrorKind = "user_not_found"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindMalformedHash      ErrorKind = "malformed_hash"
	KindHashing            ErrorKind = "hashing_failed"
	KindInvalidTTL         ErrorKind = "invalid_ttl"
	KindInvalidKey         ErrorKind = "invalid_key"
	KindInvalidRole        ErrorKind = "invalid_role"
	KindSignature          ErrorKind = "signature_invalid"
	KindExpiredToken       ErrorKind = "token_expired"
	KindMalformedToken     ErrorKind = "token_malformed"
	KindNoToken            ErrorKind = "no_token"
	KindForbidden          ErrorKind = "forbidden"
	KindLookup             ErrorKind = "lookup_failed"
	KindInvalidInput       ErrorKind = "invalid_input"
)

// DomainError represents a structured error with additional context.
// Messages must never carry secrets, stored hashes or key material.
type DomainError struct {
	Type    ErrorType
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Kind when the target carries one, otherwise on Type.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Kind != "" {
		return e.Kind == t.Kind
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Kind:    kind,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is. Use the constructors below to return fresh
// instances so callers never mutate a shared value through WithDetail.
var (
	ErrUserNotFound       = NewDomainError(ErrorTypeNotFound, KindUserNotFound, "user not found", nil)
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, KindInvalidCredentials, "invalid credentials", nil)
	ErrMalformedHash      = NewDomainError(ErrorTypeInternal, KindMalformedHash, "stored password hash is malformed", nil)
	ErrHashing            = NewDomainError(ErrorTypeInternal, KindHashing, "password hashing failed", nil)
	ErrInvalidTTL         = NewDomainError(ErrorTypeInternal, KindInvalidTTL, "token ttl must be positive", nil)
	ErrInvalidKey         = NewDomainError(ErrorTypeInternal, KindInvalidKey, "signing key is not configured", nil)
	ErrInvalidRole        = NewDomainError(ErrorTypeInternal, KindInvalidRole, "role cannot be encoded in a token", nil)
	ErrSignature          = NewDomainError(ErrorTypeUnauthorized, KindSignature, "token signature is invalid", nil)
	ErrExpiredToken       = NewDomainError(ErrorTypeUnauthorized, KindExpiredToken, "token expired", nil)
	ErrMalformedToken     = NewDomainError(ErrorTypeUnauthorized, KindMalformedToken, "token is malformed", nil)
	ErrNoToken            = NewDomainError(ErrorTypeUnauthorized, KindNoToken, "no token found", nil)
	ErrForbidden          = NewDomainError(ErrorTypeForbidden, KindForbidden, "insufficient role", nil)
	ErrLookup             = NewDomainError(ErrorTypeExternal, KindLookup, "user lookup failed", nil)
	ErrInvalidInput       = NewDomainError(ErrorTypeValidation, KindInvalidInput, "invalid input", nil)
)

// New returns a fresh error of the same type and kind as the sentinel,
// wrapping cause when non-nil.
func New(sentinel *DomainError, cause error) *DomainError {
	return NewDomainError(sentinel.Type, sentinel.Kind, sentinel.Message, cause)
}

// Newf is New with a replacement message.
func Newf(sentinel *DomainError, cause error, format string, args ...interface{}) *DomainError {
	return NewDomainError(sentinel.Type, sentinel.Kind, fmt.Sprintf(format, args...), cause)
}

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external collaborator error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// KindOf returns the ErrorKind of a domain error, or empty string if not a domain error
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}
