package model

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ValidDate reports whether s is a calendar date in DateLayout form.
func ValidDate(s string) bool {
	t, err := time.Parse(DateLayout, s)
	return err == nil && t.Format(DateLayout) == s
}

// ValidClock reports whether s is a wall-clock time in ClockLayout form.
func ValidClock(s string) bool {
	t, err := time.Parse(ClockLayout, s)
	return err == nil && t.Format(ClockLayout) == s
}

// ClockBefore reports whether a sorts strictly before b. Both arguments
// must already satisfy ValidClock; the fixed-width layout makes plain
// string comparison correct.
func ClockBefore(a, b string) bool {
	return a < b
}

// ValidStatus reports whether s is a recognized appointment status.
func ValidStatus(s string) bool {
	return s == StatusConfirmed || s == StatusCancelled
}
