package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestStruct struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Secret string `json:"secret" validate:"required,min=4,max=72"`
	Kind   string `validate:"omitempty,oneof=a b"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := TestStruct{Name: "Ada", Email: "ada@example.com", Secret: "hunter2"}

		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("reports json field names", func(t *testing.T) {
		s := TestStruct{Email: "not-an-email", Secret: "abc", Kind: "c"}

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "name is required", fields["name"])
		assert.Equal(t, "email must be a valid email", fields["email"])
		assert.Equal(t, "secret must be at least 4", fields["secret"])
		assert.Equal(t, "Kind must be one of: a b", fields["Kind"])
	})

	t.Run("rejected values are not echoed", func(t *testing.T) {
		s := TestStruct{Name: "Ada", Email: "ada@example.com", Secret: "abc"}

		fields := GetValidationFields(ValidateStruct(&s))
		assert.NotContains(t, fields["secret"], "abc")
	})
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "Validation failed", Fields: map[string]string{"a": "b"}}

	assert.Equal(t, "Validation failed", err.Error())
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
	assert.Nil(t, GetValidationFields(assert.AnError))
}
