package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jbousquie/whisperx-api/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks on request values. Checks chain:
//
//	err := validation.New().Required("filename", name).OneOf("extension", ext, allowed).Err()
type Validator struct {
	failed []FieldError
}

func New() *Validator { return &Validator{} }

// AddError records a failed check.
func (v *Validator) AddError(field, message string) {
	v.failed = append(v.failed, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.failed) > 0 }

func (v *Validator) Errors() []FieldError { return v.failed }

// Validate folds the failed checks into one INVALID_INPUT error, or nil.
func (v *Validator) Validate() *errors.AppError {
	if len(v.failed) == 0 {
		return nil
	}
	return fieldsError(v.failed)
}

// Err is Validate as an error interface, so a valid result is a true nil.
func (v *Validator) Err() error {
	if len(v.failed) == 0 {
		return nil
	}
	return fieldsError(v.failed)
}

// fieldsError joins the messages. A single failure also sets the "field"
// detail so clients can highlight it.
func fieldsError(fields []FieldError) *errors.AppError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	e := errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
	if len(fields) == 1 {
		e.WithDetail("field", fields[0].Field)
	}
	return e
}

// Required fails on empty or blank values.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(strings.TrimSpace(value) != "", field, "is required")
}

// Min fails when value is below floor.
func (v *Validator) Min(field string, value, floor int) *Validator {
	return v.Custom(value >= floor, field, fmt.Sprintf("must be at least %d", floor))
}

// OneOf fails when value is set and not in allowed. Pair it with Required
// for mandatory values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.Custom(value == "" || slices.Contains(allowed, value), field,
		"must be one of: "+strings.Join(allowed, ", "))
}

// Custom fails with message unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}
