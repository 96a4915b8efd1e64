package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// NormalizeRating rounds a rating to one decimal place, halves away from zero.
// Values that round to zero come back as positive zero.
func NormalizeRating(value float64) float64 {
	r := math.Round(value*10) / 10
	if r == 0 {
		return 0
	}
	return r
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or a full RFC 3339 timestamp
// and returns it in UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return t.UTC(), nil
}

// ParseDatePtr is ParseDate for optional fields.
func ParseDatePtr(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := ParseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func roundPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := NormalizeRating(*v)
	return &r
}
