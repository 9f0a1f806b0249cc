package apperror

import (
	"errors"
	"fmt"
)

// Sentinels matched through errors.Is by the delivery layer.
var (
	ErrValidation = errors.New("invalid data")
	ErrDuplicate  = errors.New("duplicate record")
	ErrNotFound   = errors.New("record not found")
)

// ValidationError reports the business rule a candidate record violated.
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for rule with a formatted reason.
func Invalid(rule, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	}
}

// DuplicateError reports a primary or secondary unique value already held by
// another record. Value may be empty when the store did not expose it.
type DuplicateError struct {
	Resource string
	Field    string
	Value    string
}

func (e *DuplicateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s with the same %s already exists", e.Resource, e.Field)
	}
	return fmt.Sprintf("%s with %s %s already exists", e.Resource, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

func Duplicate(resource, field, value string) *DuplicateError {
	return &DuplicateError{
		Resource: resource,
		Field:    field,
		Value:    value,
	}
}

// NotFoundError reports an operation targeting an absent key.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NotFound(resource, key string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Key:      key,
	}
}
