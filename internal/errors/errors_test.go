package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrStaleData, "after %d attempts", 12)
	if !Is(err, ErrStaleData) {
		t.Errorf("wrapped error lost sentinel: %v", err)
	}
	if err.Error() != "after 12 attempts: provider data still stale after retries" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) != nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	exp := time.Date(2026, time.March, 20, 0, 0, 0, 0, time.UTC)
	err := NewFetchError("SPY", exp, cause)

	if !Is(err, cause) {
		t.Error("FetchError does not unwrap to its cause")
	}

	var fetchErr *FetchError
	wrapped := fmt.Errorf("fetching: %w", err)
	if !As(wrapped, &fetchErr) {
		t.Fatal("As failed to find FetchError in chain")
	}
	if fetchErr.Symbol != "SPY" || !fetchErr.Expiration.Equal(exp) {
		t.Errorf("FetchError fields lost: %+v", fetchErr)
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	err := NewStoreError("append_snapshots", ErrConstraintViolation)
	if !Is(err, ErrConstraintViolation) {
		t.Error("StoreError does not unwrap to its cause")
	}
}

func TestSentinelsDistinct(t *testing.T) {
	sentinels := []error{
		ErrNoSolution, ErrStaleData, ErrConstraintViolation,
		ErrInsufficientHistory, ErrNoSessionData, ErrConfigInvalid,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinels %d and %d alias each other", i, j)
			}
		}
	}
}
