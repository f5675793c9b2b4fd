package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoIdentity is returned when a lead carries neither an email nor a
// contact name plus company.
var ErrNoIdentity = errors.New("lead must include email or both contact name and company")

// FieldError describes one offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError is a malformed payload. It maps to 400.
type ValidationError struct {
	Errors []FieldError
}

func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+" ("+fe.Message+")")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// RowLimitError rejects an import larger than the configured ceiling. It maps
// to 429.
type RowLimitError struct {
	Limit int
	Rows  int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("too many rows (%d > %d)", e.Rows, e.Limit)
}

// StorageError wraps any failure of the backing store. It maps to 500 and its
// detail is never sent to callers.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
