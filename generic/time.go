package generic

import (
	"time"
)

// =============================================================================
// CLOCK - Source of "now" for metrics evaluated without an explicit asOf
// =============================================================================

// Clock returns the current instant. Metrics default asOf to Clock.Now().
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock in local time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used for demos and tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// =============================================================================
// CALENDAR BOUNDARIES
// =============================================================================
// Every boundary is built in the location of its reference time. Callers that
// pass local times get the host's calendar rules; UTC and local are never mixed
// inside a single computation.

const day = 24 * time.Hour

// MonthStart returns the first instant of the calendar month containing t.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthEnd returns the last instant of the calendar month containing t.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// YearStart returns January 1 of t's year at zero hour.
func YearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// DayStart returns midnight of the day containing t.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// IsInRange reports whether start <= t <= end.
func IsInRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// AddDays offsets t by n calendar days. n may be negative.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the whole number of days elapsed from `from` to `to`,
// floored. Negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// DaysUntil returns the number of days from `from` to `to`, rounded up.
func DaysUntil(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / day)
	if d > 0 && d%day != 0 {
		days++
	}
	return days
}

// =============================================================================
// PARSING
// =============================================================================

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates. Plain dates
// resolve to midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, &DateError{Input: s}
	}
	return t, nil
}
