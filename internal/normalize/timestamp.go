package normalize

import (
	"encoding/json"
	"math"
	"strings"
	"time"
)

const (
	// Numbers below this are epoch seconds; at or above, epoch milliseconds.
	// 1e12 ms is September 2001, so any plausible millisecond value clears it.
	secondsThreshold = 1e12
)

// Instants outside four-digit years cannot be formatted and parsed back or
// encoded as JSON, so they coerce to absent.
var (
	minInstant = time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	maxInstant = time.Date(9999, 12, 31, 23, 59, 59, 999_000_000, time.UTC)
)

// Layouts tried, in order, for string timestamps. Zone-less layouts are read
// as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.RFC822,
	time.RFC822Z,
	time.ANSIC,
	time.UnixDate,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Coerce converts an upstream timestamp of any representation into a UTC
// instant. ok is false when the value is absent or cannot be interpreted.
func Coerce(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case nil:
		return time.Time{}, false
	case float64:
		return fromNumber(typed)
	case float32:
		return fromNumber(float64(typed))
	case int:
		return fromNumber(float64(typed))
	case int64:
		return fromNumber(float64(typed))
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return fromNumber(f)
	case string:
		return fromString(typed)
	case time.Time:
		if typed.IsZero() || !inRange(typed) {
			return time.Time{}, false
		}
		return typed.UTC(), true
	default:
		return time.Time{}, false
	}
}

// CoercePtr is Coerce returning nil for absent.
func CoercePtr(value any) *time.Time {
	t, ok := Coerce(value)
	if !ok {
		return nil
	}
	return &t
}

func fromNumber(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	ms := n
	if n < secondsThreshold {
		ms = n * 1000
	}
	ms = math.Trunc(ms)
	if ms < float64(minInstant.UnixMilli()) || ms > float64(maxInstant.UnixMilli()) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

func fromString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC().Truncate(time.Millisecond)
		if !inRange(t) {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

func inRange(t time.Time) bool {
	return !t.Before(minInstant) && !t.After(maxInstant)
}
