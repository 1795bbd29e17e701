package market

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	shortTimeLayout = "15:04"
)

// NormalizeTicker trims and upper-cases a symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseDate parses an ISO 8601 calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// NormalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func NormalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t.Format(TimeLayout), nil
	}
	if t, err := time.Parse(shortTimeLayout, s); err == nil {
		return t.Format(TimeLayout), nil
	}
	return "", fmt.Errorf("time %q: want HH:MM:SS", s)
}

// Instant combines a date and a time of day into a single UTC instant.
// Unparseable input yields the zero time, which sorts first.
func Instant(date, clock string) time.Time {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}
	}
	norm, err := NormalizeTime(clock)
	if err != nil {
		return d
	}
	t, _ := time.Parse(TimeLayout, norm)
	return d.Add(time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second)
}
