package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLocalInstantStandardTime(t *testing.T) {
	// 21:00 in Los Angeles during standard time (UTC-8) is 05:00 the next
	// UTC day.
	got, err := LocalInstant(day(2026, time.January, 15), "21:00", "America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 16, 5, 0, 0, 0, time.UTC), got)
}

func TestLocalInstantDaylightTime(t *testing.T) {
	// Same wall-clock time during DST (UTC-7) lands an hour earlier in UTC.
	got, err := LocalInstant(day(2026, time.July, 15), "21:00", "America/Los_Angeles")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.July, 16, 4, 0, 0, 0, time.UTC), got)
}

func TestLocalInstantSkippedWallClock(t *testing.T) {
	// 2026-03-08 02:30 does not exist in Los Angeles (spring forward jumps
	// 02:00 -> 03:00). The conversion must not fail and must land on one of
	// the two bracketing interpretations of the skipped time.
	got, err := LocalInstant(day(2026, time.March, 8), "02:30", "America/Los_Angeles")
	require.NoError(t, err)

	asPST := time.Date(2026, time.March, 8, 10, 30, 0, 0, time.UTC)
	asPDT := time.Date(2026, time.March, 8, 9, 30, 0, 0, time.UTC)
	assert.Contains(t, []time.Time{asPST, asPDT}, got)
}

func TestLocalInstantUTCIdentity(t *testing.T) {
	got, err := LocalInstant(day(2026, time.June, 1), "09:30", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.June, 1, 9, 30, 0, 0, time.UTC), got)
}

func TestLocalInstantInvalidInputs(t *testing.T) {
	_, err := LocalInstant(day(2026, time.January, 15), "21:00", "Not/AZone")
	assert.Error(t, err)

	_, err = LocalInstant(day(2026, time.January, 15), "9pm", "America/Los_Angeles")
	assert.Error(t, err)

	_, err = LocalInstant(day(2026, time.January, 15), "25:00", "America/Los_Angeles")
	assert.Error(t, err)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, time.April, 3, 17, 45, 12, 999, time.FixedZone("X", -5*3600))
	got := DateOnly(in)
	assert.Equal(t, time.Date(2026, time.April, 3, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
