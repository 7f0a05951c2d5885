package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used in files, queries and responses.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD, RFC3339 or unix seconds and returns the UTC midnight of that date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Midnight(t), nil
	}
	// pandas writes "2024-06-07 00:00:00-04:00" when an index is saved to CSV
	if len(s) >= len(DateLayout) {
		if t, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
			return t, nil
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return Midnight(time.Unix(ts, 0).UTC()), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Midnight keeps t's wall-clock date and drops the time of day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from a to b on their wall dates.
func DaysBetween(a, b time.Time) int {
	return int(Midnight(b).Sub(Midnight(a)).Hours() / 24)
}
