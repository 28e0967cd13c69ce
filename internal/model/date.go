package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of exam dates.
const DateLayout = "2006-01-02"

// DateOnly drops the time of day and returns midnight UTC of the calendar
// date t falls on in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOnly(a).Equal(DateOnly(b))
}

// ParseDate accepts "2006-01-02" or a full RFC3339 timestamp and returns the
// normalised date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidRequest, s)
	}
	return DateOnly(t), nil
}
