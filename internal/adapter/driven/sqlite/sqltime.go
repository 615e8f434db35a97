package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// timeFormat is the canonical format for timestamps written by this package.
// Columns defaulted by CURRENT_TIMESTAMP use SQLite's "2006-01-02 15:04:05"
// form, so parseTime accepts both.
const timeFormat = time.RFC3339Nano

// formatTime renders a timestamp for storage, normalized to UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// formatNullTime renders an optional timestamp for storage; nil becomes NULL.
func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
