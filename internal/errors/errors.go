// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	// ErrNoSolution is returned by the implied-volatility solver when the
	// market price admits no volatility inside the bracket. Recoverable per
	// contract: the caller skips the contract and continues the batch.
	ErrNoSolution = errors.New("no implied volatility solution in bracket")

	// ErrStaleData is returned after the freshness gate exhausted its retry
	// budget without the provider advancing to a new session. Fatal for the
	// session: nothing was committed.
	ErrStaleData = errors.New("provider data still stale after retries")

	// ErrConstraintViolation is returned when an append would duplicate a
	// snapshot key. The whole append rolls back.
	ErrConstraintViolation = errors.New("snapshot uniqueness constraint violated")

	// ErrInsufficientHistory is returned when fewer than two distinct skew
	// dates exist. Expected on first-ever run.
	ErrInsufficientHistory = errors.New("insufficient skew history")

	// ErrNoSessionData is returned when the provider genuinely has no data
	// for the requested session. Distinct from ErrStaleData so the scheduler
	// can tell "retry tomorrow" from "alert an operator".
	ErrNoSessionData = errors.New("provider has no data for session")

	// ErrConfigInvalid wraps every config.Validate rejection so callers can
	// match the class without parsing messages.
	ErrConfigInvalid = errors.New("invalid configuration")
)

// FetchError represents a per-expiration chain fetch failure. Recoverable:
// the producer logs it and excludes that expiration from the candidate.
type FetchError struct {
	Symbol     string
	Expiration time.Time
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("chain fetch failed [%s %s]: %v", e.Symbol, e.Expiration.Format("2006-01-02"), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError.
func NewFetchError(symbol string, expiration time.Time, err error) *FetchError {
	return &FetchError{
		Symbol:     symbol,
		Expiration: expiration,
		Err:        err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StoreError represents a persistence failure outside the uniqueness
// constraint, with the operation that failed.
type StoreError struct {
	Operation string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s]: %v", e.Operation, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Err:       err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
