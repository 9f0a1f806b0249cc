package converter

import (
	"strings"
	"time"

	"hospital-records/internal/domain/apperror"
)

// DateLayout is the wire format of every calendar date.
const DateLayout = "2006-01-02"

const (
	RuleDateFormat    = "date_format"
	RuleWorkDayFormat = "work_day_format"
	RuleDateRange     = "date_range"
)

// ParseDate parses a YYYY-MM-DD value into a UTC midnight.
func ParseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperror.Invalid(RuleDateFormat, "Invalid %s %q, expected YYYY-MM-DD", field, value)
	}
	return d, nil
}

// Today truncates now to its calendar date.
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// optional maps blank input to nil so unique columns stay NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
