package repository

import "errors"

var (
	// ErrUniqueViolation matches any unique or primary key violation reported by the store.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrKeyConflict matches only primary key violations.
	ErrKeyConflict = errors.New("primary key conflict")
)

// UniqueViolationError is returned by repository writes rejected by a unique
// constraint. Field is the offending column when it could be resolved.
type UniqueViolationError struct {
	Constraint string
	Field      string
	Key        bool
	Err        error
}

func (e *UniqueViolationError) Error() string {
	if e.Field != "" {
		return "unique constraint violation on " + e.Field
	}
	return "unique constraint violation on " + e.Constraint
}

func (e *UniqueViolationError) Is(target error) bool {
	if target == ErrUniqueViolation {
		return true
	}
	return e.Key && target == ErrKeyConflict
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}
