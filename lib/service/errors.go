package service

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks states that correct operation never produces.
// It is never retried.
var ErrInvariantViolation = errors.New("ledger invariant violation")

var ErrCurrencyMismatch = errors.New("payment type currency does not match account currency")

// ValidationError is returned when input is rejected before anything is written.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func invariantViolation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}
