package delivery

import (
	"fmt"
	"time"
)

// LocalInstant converts a user's preferred wall-clock time on a calendar day
// to a UTC instant. day supplies only the calendar date; hhmm is "HH:MM" and
// zone is an IANA timezone name.
//
// On DST transition days a wall-clock time can be skipped or ambiguous.
// time.Date resolves both using the zone's offset rules (a skipped 02:30
// lands inside the surrounding valid hour), so this never fails for a valid
// zone and time string.
func LocalInstant(day time.Time, hhmm string, zone string) (time.Time, error) {
	hour, minute, err := parseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", zone, err)
	}

	local := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
	return local.UTC(), nil
}

func parseClock(hhmm string) (hour, minute int, err error) {
	var parsed time.Time
	parsed, err = time.Parse("15:04", hhmm)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid delivery time %q (want HH:MM): %w", hhmm, err)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// DateOnly truncates a time to its calendar date in UTC. Queue entries are
// keyed by this value.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
