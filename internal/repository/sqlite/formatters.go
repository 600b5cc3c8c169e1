package sqlite

import (
	"time"
)

// Times are stored as RFC3339Nano strings so microsecond precision
// survives the round trip through TEXT columns.

// FormatTimeForDB formats a time.Time value for database storage.
func FormatTimeForDB(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FormatTimePtrForDB formats a *time.Time value, returning nil for NULL.
func FormatTimePtrForDB(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return FormatTimeForDB(*t)
}

// ParseTimeFromDB parses a stored time string from the database.
func ParseTimeFromDB(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
