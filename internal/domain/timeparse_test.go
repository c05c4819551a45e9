package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func TestParseFlexibleTime_Relative(t *testing.T) {
	loc := jakarta(t)
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"10m", 10 * time.Minute},
		{"2h", 2 * time.Hour},
		{"3d", 3 * 24 * time.Hour},
		{"1d2h3m", 26*time.Hour + 3*time.Minute},
		{"10mins", 10 * time.Minute},
		{"10 minutes", 10 * time.Minute},
		{"2 hours", 2 * time.Hour},
		{"1 hr 30 min", 90 * time.Minute},
		{"5 days", 5 * 24 * time.Hour},
	}
	for _, tc := range tests {
		got, err := ParseFlexibleTime(tc.in, now, loc)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, now.Add(tc.want), got, "input %q", tc.in)
	}
}

func TestParseFlexibleTime_ZeroDurationRejected(t *testing.T) {
	loc := jakarta(t)
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)

	_, err := ParseFlexibleTime("0m", now, loc)
	assert.ErrorIs(t, err, ErrZeroDuration)

	_, err = ParseFlexibleTime("0d0h0m", now, loc)
	assert.ErrorIs(t, err, ErrZeroDuration)
}

func TestParseFlexibleTime_ExactLiteral(t *testing.T) {
	loc := jakarta(t)
	// Reference instant must not influence the result.
	for _, now := range []time.Time{
		time.Date(2020, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(2030, time.December, 31, 23, 59, 0, 0, loc),
	} {
		got, err := ParseFlexibleTime("2025-01-01 10:00", now, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.January, 1, 10, 0, 0, 0, loc), got)
	}
}

func TestParseFlexibleTime_DayMonth(t *testing.T) {
	loc := jakarta(t)
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)

	got, err := ParseFlexibleTime("11 october", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 11, 0, 0, 0, 0, loc), got)

	got, err = ParseFlexibleTime("11 October 2026", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 11, 0, 0, 0, 0, loc), got)

	got, err = ParseFlexibleTime("3 oct", now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 3, 0, 0, 0, 0, loc), got)
}

func TestParseFlexibleTime_InvalidDate(t *testing.T) {
	loc := jakarta(t)
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)

	_, err := ParseFlexibleTime("31 february", now, loc)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseFlexibleTime_Unparseable(t *testing.T) {
	loc := jakarta(t)
	now := time.Date(2025, time.March, 10, 14, 30, 0, 0, loc)

	for _, in := range []string{"", "soon", "10x", "tomorrow", "12 foo"} {
		_, err := ParseFlexibleTime(in, now, loc)
		assert.ErrorIs(t, err, ErrUnparseableTime, "input %q", in)
	}
}

func TestParseMonth(t *testing.T) {
	m, ok := ParseMonth("October")
	assert.True(t, ok)
	assert.Equal(t, time.October, m)

	m, ok = ParseMonth("dec")
	assert.True(t, ok)
	assert.Equal(t, time.December, m)

	_, ok = ParseMonth("octo")
	assert.False(t, ok)
}
