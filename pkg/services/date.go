package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// DateLayout is the human-readable layout articles are authored with.
const DateLayout = "Jan 2 2006"

var ErrDateFormat = errors.New("unrecognised date format")

var dateLayouts = []string{
	DateLayout,
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDate turns a front matter date value into a UTC calendar date at
// midnight. Strings, native YAML/JSON times and TOML local dates are accepted.
func ParseDate(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("date: %w", ErrDateFormat)
	case time.Time:
		return calendarDate(v.Year(), v.Month(), v.Day()), nil
	case toml.LocalDate:
		return calendarDate(v.Year, time.Month(v.Month), v.Day), nil
	case toml.LocalDateTime:
		return calendarDate(v.Year, time.Month(v.Month), v.Day), nil
	case string:
		return parseDateString(v)
	default:
		return time.Time{}, fmt.Errorf("date %v (%T): %w", value, value, ErrDateFormat)
	}
}

func parseDateString(raw string) (time.Time, error) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, fmt.Errorf("date %q: %w", raw, ErrDateFormat)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q: %w", raw, ErrDateFormat)
}

func calendarDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
