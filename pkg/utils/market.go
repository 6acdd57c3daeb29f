package utils

import (
	"math"
	"time"
)

// EasternLocation is the timezone for US equity and option sessions.
var EasternLocation *time.Location

func init() {
	var err error
	EasternLocation, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback to UTC-5
		EasternLocation = time.FixedZone("EST", -5*60*60)
	}
}

// SessionCloseHour is the regular-session close (16:00 Eastern).
const SessionCloseHour = 16

// dateOnly reports whether t carries no meaningful clock. Provider
// expirations and parsed YYYY-MM-DD flags arrive as midnight timestamps;
// converting those to Eastern first would shift the calendar day.
func dateOnly(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// SessionClose returns the session-close timestamp for the calendar day of t.
// Date-only inputs name the day directly; instants are read in Eastern time.
func SessionClose(t time.Time) time.Time {
	if !dateOnly(t) {
		t = t.In(EasternLocation)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), SessionCloseHour, 0, 0, 0, EasternLocation)
}

// PreviousSessionClose returns the close of the most recent weekday session
// strictly before the calendar day of t. Monday maps back to Friday. Exchange
// holidays are the scheduler's concern, not handled here.
func PreviousSessionClose(t time.Time) time.Time {
	if !dateOnly(t) {
		t = t.In(EasternLocation)
	}
	switch t.Weekday() {
	case time.Monday:
		t = t.AddDate(0, 0, -3)
	case time.Sunday:
		t = t.AddDate(0, 0, -2)
	default:
		t = t.AddDate(0, 0, -1)
	}
	return SessionClose(t)
}

// YearsToExpiry returns the time from valuation to the expiration's session
// close as a year fraction. Non-positive when the expiration has passed.
func YearsToExpiry(valuation, expiration time.Time) float64 {
	exp := SessionClose(expiration)
	return exp.Sub(valuation).Hours() / 24 / 365
}

// DaysToExpiry returns the whole-day dte used for display and filtering.
func DaysToExpiry(valuation, expiration time.Time) int {
	return int(math.Round(YearsToExpiry(valuation, expiration) * 365))
}

// SameSession reports whether two timestamps identify the same trading
// session (same calendar day in Eastern time).
func SameSession(a, b time.Time) bool {
	a = a.In(EasternLocation)
	b = b.In(EasternLocation)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
