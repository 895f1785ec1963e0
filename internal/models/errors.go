package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidArgs = errors.New("invalid arguments")
	ErrUnavailable = errors.New("record store unavailable")
)

// FieldError reports a single rejected field. It matches ErrInvalidArgs
// under errors.Is.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidArgs
}

// NewFieldError returns a *FieldError for field.
func NewFieldError(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// NotFound wraps ErrNotFound with the kind and id that were looked up.
func NotFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
}
