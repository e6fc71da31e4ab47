package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in snapshots.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the number of whole calendar days from a to b.
// Time of day is ignored; the result is negative when b is before a.
// Day numbers are counted from the Unix epoch so spans longer than a
// time.Duration can hold stay exact.
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(b) - dayNumber(a))
}

func dayNumber(t time.Time) int64 {
	return DateOf(t).Unix() / secondsPerDay
}
