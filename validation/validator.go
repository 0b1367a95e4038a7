package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/voxboard/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	return fieldErrorsToAppError(v.errors)
}

// Required fails for empty or whitespace-only values.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxRunes fails when value has more than maxLen characters. Length is
// counted in runes so multi-byte text is not penalized.
func (v *Validator) MaxRunes(field, value string, maxLen int) *Validator {
	if n := utf8.RuneCountInString(value); n > maxLen {
		v.AddError(field, fmt.Sprintf("must be %d characters or less (got %d)", maxLen, n))
	}
	return v
}

// MaxBytes fails when size exceeds limit.
func (v *Validator) MaxBytes(field string, size, limit int64) *Validator {
	if size > limit {
		v.AddError(field, fmt.Sprintf("must be %d bytes or less (got %d)", limit, size))
	}
	return v
}

func fieldErrorsToAppError(fields []FieldError) *errors.AppError {
	messages := make([]string, len(fields))
	for i, e := range fields {
		messages[i] = e.Field + ": " + e.Message
	}
	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{"fields": fields}
	return appErr
}
