// Package isotime parses and formats the ISO-8601 timestamp strings used at
// the service boundary. Instants are normalized on the way in: an explicit
// offset (or "Z") is preserved through the time.Time location, and
// offset-naive strings are interpreted as UTC. Everything past this boundary
// works on absolute instants, so mixed-awareness comparisons cannot happen
// inside the analysis code.
package isotime

import (
	"fmt"
	"strings"
	"time"
)

// layouts accepted for full timestamps, tried in order. The first two cover
// RFC 3339 with and without fractional seconds; the rest cover offset-naive
// forms, including the space-separated variant SQL stores tend to emit.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Parse converts an ISO-8601 timestamp string to a time.Time. Offset-naive
// input is interpreted as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDate converts a bare YYYY-MM-DD string to midnight UTC on that date.
// Callers that care about the zone project the calendar date themselves.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return t, nil
}

// Format renders an instant as RFC 3339, keeping whatever offset the instant
// carries. Sub-second precision is emitted only when present.
func Format(t time.Time) string {
	if t.Nanosecond() != 0 {
		return t.Format(time.RFC3339Nano)
	}
	return t.Format(time.RFC3339)
}
