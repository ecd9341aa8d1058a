package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCoerceSecondsExpandToMillis(t *testing.T) {
	for _, sec := range []float64{1e9, 1700000000, 1700000000.5, 253402300799} {
		fromSeconds, ok := Coerce(sec)
		require.True(t, ok)
		fromMillis, ok := Coerce(sec * 1000)
		require.True(t, ok)
		require.True(t, fromSeconds.Equal(fromMillis), "seconds %v", sec)
	}
}

func TestCoerceNumbers(t *testing.T) {
	got, ok := Coerce(float64(1700000000))
	require.True(t, ok)
	require.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), got)

	got, ok = Coerce(int64(1700000000123))
	require.True(t, ok)
	require.Equal(t, 123*time.Millisecond, time.Duration(got.Nanosecond()))

	got, ok = Coerce(json.Number("1700000000"))
	require.True(t, ok)
	require.Equal(t, int64(1700000000), got.Unix())

	_, ok = Coerce(9e15)
	require.False(t, ok)
}

func TestCoerceOutsideFourDigitYears(t *testing.T) {
	for _, v := range []any{
		999999999999.0, // seconds, year 33658
		-1e11,
		3e14,
		253402300800.0, // 10000-01-01 in seconds
		"0000-01-01T00:30:00+01:00",
		time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, ok := Coerce(v)
		require.False(t, ok, "%#v", v)
	}

	lo, ok := Coerce(float64(time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Unix()))
	require.True(t, ok)
	require.Equal(t, 0, lo.Year())
	hi, ok := Coerce("9999-12-31T23:59:59.999Z")
	require.True(t, ok)
	require.Equal(t, 9999, hi.Year())
}

func TestCoerceStrings(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T09:30:00Z", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"2026-03-01T09:30:00.123+02:00", time.Date(2026, 3, 1, 7, 30, 0, 123000000, time.UTC)},
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2026-03-01 09:30:00", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"Sun, 01 Mar 2026 09:30:00 GMT", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"  2026-03-01T09:30:00Z  ", time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Coerce(tt.in)
			require.True(t, ok)
			require.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestCoerceAbsent(t *testing.T) {
	for _, v := range []any{nil, "", "not-a-date", true, map[string]any{}, []any{1.0}, time.Time{}} {
		_, ok := Coerce(v)
		require.False(t, ok, "%#v", v)
	}
	require.Nil(t, CoercePtr("nope"))
}
