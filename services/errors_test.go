package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, KindUserNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, KindUserNotFound, domainErr.Kind)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeExternal,
				Kind:    KindLookup,
				Message: "user lookup failed",
				Err:     errors.New("db error"),
			},
			wantMsg: "external: user lookup failed (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeUnauthorized,
				Kind:    KindExpiredToken,
				Message: "token expired",
			},
			wantMsg: "unauthorized: token expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("connection reset")
	domainErr := New(ErrLookup, baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
	assert.ErrorIs(t, domainErr, baseErr)
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same kind", New(ErrSignature, nil), ErrSignature, true},
		{"same type different kind", New(ErrExpiredToken, nil), ErrSignature, false},
		{"kindless target matches on type", New(ErrExpiredToken, nil), &DomainError{Type: ErrorTypeUnauthorized}, true},
		{"wrapped", fmt.Errorf("login: %w", New(ErrInvalidCredentials, nil)), ErrInvalidCredentials, true},
		{"not a domain error target", New(ErrForbidden, nil), errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	err := New(ErrForbidden, nil)

	err.WithDetail("required_role", 3).WithDetail("role", 1)

	assert.Equal(t, 3, err.Details["required_role"])
	assert.Equal(t, 1, err.Details["role"])
	assert.Empty(t, ErrForbidden.Details, "sentinel must stay untouched")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrMalformedToken, nil, "unsupported token version %d", 7)

	assert.Equal(t, KindMalformedToken, err.Kind)
	assert.Equal(t, "unsupported token version 7", err.Message)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestKindsAreDistinguishable(t *testing.T) {
	sentinels := []*DomainError{
		ErrUserNotFound,
		ErrInvalidCredentials,
		ErrMalformedHash,
		ErrHashing,
		ErrInvalidTTL,
		ErrInvalidKey,
		ErrInvalidRole,
		ErrSignature,
		ErrExpiredToken,
		ErrMalformedToken,
		ErrNoToken,
		ErrForbidden,
		ErrLookup,
		ErrInvalidInput,
	}

	seen := make(map[ErrorKind]bool)
	for _, s := range sentinels {
		require.NotEmpty(t, s.Kind)
		assert.False(t, seen[s.Kind], "duplicate kind %s", s.Kind)
		seen[s.Kind] = true

		for _, other := range sentinels {
			if other == s {
				continue
			}
			assert.False(t, errors.Is(New(s, nil), other), "%s must not match %s", s.Kind, other.Kind)
		}
	}
}

func TestCategoryHelpers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
		want    bool
	}{
		{"not found", ErrUserNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"validation", ErrInvalidInput, IsValidationError, true},
		{"unauthorized signature", ErrSignature, IsUnauthorizedError, true},
		{"unauthorized expired", ErrExpiredToken, IsUnauthorizedError, true},
		{"forbidden", ErrForbidden, IsForbiddenError, true},
		{"forbidden is not unauthorized", ErrForbidden, IsUnauthorizedError, false},
		{"internal", ErrMalformedHash, IsInternalError, true},
		{"external", ErrLookup, IsExternalError, true},
		{"regular error", errors.New("regular"), IsInternalError, false},
		{"nil error", nil, IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.checker(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNoToken, KindOf(New(ErrNoToken, nil)))
	assert.Equal(t, KindLookup, KindOf(fmt.Errorf("outer: %w", New(ErrLookup, errors.New("timeout")))))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("regular")))
}

func TestGetErrorDetails(t *testing.T) {
	err := New(ErrInvalidInput, nil)
	err.WithDetail("field", "identifier")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "identifier", details["field"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}
