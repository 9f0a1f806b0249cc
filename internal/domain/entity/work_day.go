package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

type WorkDay string

const (
	Monday    WorkDay = "MONDAY"
	Tuesday   WorkDay = "TUESDAY"
	Wednesday WorkDay = "WEDNESDAY"
	Thursday  WorkDay = "THURSDAY"
	Friday    WorkDay = "FRIDAY"
	Saturday  WorkDay = "SATURDAY"
	Sunday    WorkDay = "SUNDAY"
)

var allWorkDays = []WorkDay{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWorkDay accepts any letter case.
func ParseWorkDay(s string) (WorkDay, error) {
	day := WorkDay(strings.ToUpper(strings.TrimSpace(s)))
	for _, d := range allWorkDays {
		if d == day {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown work day %q", s)
}

func (d WorkDay) IsWeekend() bool {
	return d == Saturday || d == Sunday
}

// WorkDays is stored as a comma separated column so it survives on any SQL
// dialect. Order follows the week and duplicates are dropped on write.
type WorkDays []WorkDay

func (w WorkDays) Contains(day WorkDay) bool {
	for _, d := range w {
		if d == day {
			return true
		}
	}
	return false
}

// Normalize returns the set in week order without duplicates.
func (w WorkDays) Normalize() WorkDays {
	if len(w) == 0 {
		return nil
	}
	out := make(WorkDays, 0, len(w))
	for _, d := range allWorkDays {
		if w.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

// Value implements driver.Valuer
func (w WorkDays) Value() (driver.Value, error) {
	days := w.Normalize()
	if len(days) == 0 {
		return nil, nil
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = string(d)
	}
	return strings.Join(parts, ","), nil
}

// Scan implements sql.Scanner
func (w *WorkDays) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("failed to scan work days value: %v", value)
	}

	if raw == "" {
		*w = nil
		return nil
	}

	var days WorkDays
	for _, part := range strings.Split(raw, ",") {
		day, err := ParseWorkDay(part)
		if err != nil {
			return err
		}
		days = append(days, day)
	}
	*w = days
	return nil
}
