package pulseeco

import (
	"fmt"
	"strings"
	"time"
)

const (
	wireLayout       = "2006-01-02T15:04:05-07:00"
	wireLayoutMicros = "2006-01-02T15:04:05.000000-07:00"
)

// Accepted extended ISO-8601 layouts, most specific first. Layouts without a
// zone parse as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimestampError is returned when a string is not an extended ISO-8601 timestamp.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: expected extended ISO-8601 such as 2019-03-17T12:00:00+01:00", e.Value)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// ParseTimestamp parses an extended ISO-8601 timestamp. A value without an
// offset is taken to be UTC.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}

	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &TimestampError{Value: s, Err: lastErr}
}

// FormatTimestamp renders t the way the pulse.eco API expects: seconds
// precision (microseconds when present) and an explicit numeric offset.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(wireLayoutMicros)
	}
	return t.Format(wireLayout)
}

// NormalizeTimestamp parses s and re-renders it for the wire. Naive inputs
// gain a +00:00 offset; explicit offsets are preserved.
func NormalizeTimestamp(s string) (string, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}
