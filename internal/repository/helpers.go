package repository

import (
	"time"
)

// timeLayout is used for every timestamp column.
const timeLayout = time.RFC3339Nano

// parseTime parses a stored timestamp, returning the zero time for empty or
// malformed values.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatTime converts a time to its stored form, substituting now for zero.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return nowUTC()
	}
	return t.UTC().Format(timeLayout)
}

// nowUTC returns the current UTC time in the stored layout.
func nowUTC() string {
	return time.Now().UTC().Format(timeLayout)
}
