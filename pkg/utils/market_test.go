package utils

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestSessionClose(t *testing.T) {
	// Noon Eastern on a Tuesday.
	input := time.Date(2026, time.March, 3, 12, 0, 0, 0, EasternLocation)
	got := SessionClose(input)

	if got.Hour() != SessionCloseHour || got.Minute() != 0 {
		t.Errorf("SessionClose() = %v, want 16:00", got)
	}
	if got.Day() != 3 {
		t.Errorf("SessionClose() day = %d, want 3", got.Day())
	}
}

func TestSessionCloseDateOnly(t *testing.T) {
	// Provider expirations arrive as UTC midnight. The calendar day must be
	// taken as-is, not shifted to the prior evening in Eastern time.
	input := time.Date(2025, time.April, 17, 0, 0, 0, 0, time.UTC)
	got := SessionClose(input)

	want := time.Date(2025, time.April, 17, SessionCloseHour, 0, 0, 0, EasternLocation)
	if !got.Equal(want) {
		t.Errorf("SessionClose(%v) = %v, want %v", input, got, want)
	}
}

func TestPreviousSessionClose(t *testing.T) {
	tests := []struct {
		name    string
		input   time.Time
		wantDay int
	}{
		{
			name:    "tuesday maps to monday",
			input:   time.Date(2026, time.March, 3, 9, 0, 0, 0, EasternLocation),
			wantDay: 2,
		},
		{
			name:    "monday maps back to friday",
			input:   time.Date(2026, time.March, 2, 9, 0, 0, 0, EasternLocation),
			wantDay: 27, // Friday Feb 27
		},
		{
			name:    "sunday maps back to friday",
			input:   time.Date(2026, time.March, 1, 9, 0, 0, 0, EasternLocation),
			wantDay: 27,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PreviousSessionClose(tt.input)
			if got.Day() != tt.wantDay {
				t.Errorf("PreviousSessionClose() = %v, want day %d", got, tt.wantDay)
			}
			if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
				t.Errorf("PreviousSessionClose() landed on a weekend: %v", got)
			}
			if got.Hour() != SessionCloseHour {
				t.Errorf("PreviousSessionClose() hour = %d, want %d", got.Hour(), SessionCloseHour)
			}
		})
	}
}

func TestYearsToExpiry(t *testing.T) {
	// January dates so no DST transition skews the elapsed hours.
	valuation := time.Date(2026, time.January, 5, 16, 0, 0, 0, EasternLocation)
	expiration := time.Date(2026, time.February, 4, 0, 0, 0, 0, EasternLocation)

	got := YearsToExpiry(valuation, expiration)
	want := 30.0 / 365
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("YearsToExpiry() = %v, want %v", got, want)
	}

	if y := YearsToExpiry(valuation, valuation.AddDate(0, 0, -1)); y > 0 {
		t.Errorf("past expiration gave positive year fraction %v", y)
	}
}

func TestDaysToExpiry(t *testing.T) {
	valuation := time.Date(2026, time.March, 2, 16, 0, 0, 0, EasternLocation)
	expiration := time.Date(2026, time.April, 17, 0, 0, 0, 0, EasternLocation)

	if got := DaysToExpiry(valuation, expiration); got != 46 {
		t.Errorf("DaysToExpiry() = %d, want 46", got)
	}
}

func TestDaysToExpiryUTCMidnightExpiration(t *testing.T) {
	valuation := time.Date(2025, time.April, 10, 16, 0, 0, 0, EasternLocation)
	expiration := time.Date(2025, time.April, 17, 0, 0, 0, 0, time.UTC)

	if got := DaysToExpiry(valuation, expiration); got != 7 {
		t.Errorf("DaysToExpiry() = %d, want 7", got)
	}

	// A contract expiring the session after valuation is still live.
	nextDay := time.Date(2025, time.April, 11, 0, 0, 0, 0, time.UTC)
	if y := YearsToExpiry(valuation, nextDay); y <= 0 {
		t.Errorf("next-day expiration gave non-positive year fraction %v", y)
	}
}

func TestSameSession(t *testing.T) {
	// 23:00 UTC and 11:00 UTC on March 2 are both March 2 in Eastern time.
	a := time.Date(2026, time.March, 2, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.March, 2, 11, 0, 0, 0, time.UTC)
	if !SameSession(a, b) {
		t.Error("same Eastern day reported as different sessions")
	}

	// 03:00 UTC on March 3 is still March 2 in Eastern time.
	c := time.Date(2026, time.March, 3, 3, 0, 0, 0, time.UTC)
	if !SameSession(a, c) {
		t.Error("late-night UTC timestamp split the session")
	}

	d := time.Date(2026, time.March, 3, 16, 0, 0, 0, time.UTC)
	if SameSession(a, d) {
		t.Error("different Eastern days reported as the same session")
	}
}

func TestRetryWithResult(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		BackoffFactor: 2.0,
	}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		got, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		if err != nil {
			t.Fatalf("RetryWithResult() error = %v", err)
		}
		if got != 42 || attempts != 3 {
			t.Errorf("got %d after %d attempts, want 42 after 3", got, attempts)
		}
	})

	t.Run("returns last error on exhaustion", func(t *testing.T) {
		sentinel := errors.New("permanent")
		_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
			return 0, sentinel
		})
		if !errors.Is(err, sentinel) {
			t.Errorf("RetryWithResult() error = %v, want sentinel", err)
		}
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RetryWithResult(ctx, cfg, func() (int, error) {
			return 0, errors.New("transient")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RetryWithResult() error = %v, want context.Canceled", err)
		}
	})
}
