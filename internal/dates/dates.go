// Package dates implements the one canonical parser for every date format
// GDELT puts on the wire: 14-digit YYYYMMDDHHMMSS, 8-digit YYYYMMDD, and
// ISO-8601. All results are UTC; naive inputs are tagged UTC, aware inputs
// are converted.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	compact14 = "20060102150405"
	compact8  = "20060102"
)

// Parse normalizes s to a UTC timestamp. Strict: unparseable input is an error.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("dates: empty input")
	}
	if allDigits(s) {
		switch len(s) {
		case 14:
			t, err := time.ParseInLocation(compact14, s, time.UTC)
			if err != nil {
				return time.Time{}, fmt.Errorf("dates: %q: %w", s, err)
			}
			return t, nil
		case 8:
			t, err := time.ParseInLocation(compact8, s, time.UTC)
			if err != nil {
				return time.Time{}, fmt.Errorf("dates: %q: %w", s, err)
			}
			return t, nil
		default:
			return time.Time{}, fmt.Errorf("dates: %q: digit string must be 8 or 14 long", s)
		}
	}
	// ISO-8601 variants, most specific first.
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("dates: unrecognized format %q", s)
}

// ParseLenient is the lenient variant: unparseable input yields the zero time
// and ok=false instead of an error.
func ParseLenient(s string) (time.Time, bool) {
	t, err := Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Compact formats t as the 14-digit wire form in UTC.
func Compact(t time.Time) string { return t.UTC().Format(compact14) }

// CompactDay formats t as the 8-digit wire form in UTC.
func CompactDay(t time.Time) string { return t.UTC().Format(compact8) }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
