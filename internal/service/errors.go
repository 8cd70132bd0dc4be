package service

import (
	"errors"
	"fmt"
)

// Error categories. Every gateway error matches exactly one of these with
// errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnavailable  = errors.New("backend unavailable")
)

// APIError is a categorized failure reported by the backend.
type APIError struct {
	Kind   error
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
	return e.Kind.Error()
}

func (e *APIError) Unwrap() error { return e.Kind }

// FieldError is a validation failure attached to a single form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrValidation }

// Detail returns the backend's human-readable message for err, or "" when
// err carries none.
func Detail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Message
	}
	return ""
}
