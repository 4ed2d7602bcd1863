package generic

import "time"

// =============================================================================
// WINDOW - Inclusive time range used by every aggregation
// =============================================================================

// Window is the inclusive range [Start, End].
//
// Examples:
//   - Year to date:   Jan 1 00:00 .. asOf
//   - Month to date:  first instant .. last instant of asOf's month
//   - Trailing 90d:   asOf-90d .. asOf
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains returns true if t is within [Start, End].
func (w Window) Contains(t time.Time) bool {
	return IsInRange(t, w.Start, w.End)
}

// ContainsPtr is Contains for nullable timestamps. A nil time is never inside.
func (w Window) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}

func (w Window) String() string {
	return "[" + w.Start.Format(time.RFC3339) + ", " + w.End.Format(time.RFC3339) + "]"
}

// YearToDate is [YearStart(asOf), asOf].
func YearToDate(asOf time.Time) Window {
	return Window{Start: YearStart(asOf), End: asOf}
}

// MonthToDate is the whole calendar month containing asOf. The end is the
// month's last instant, not asOf.
func MonthToDate(asOf time.Time) Window {
	return Window{Start: MonthStart(asOf), End: MonthEnd(asOf)}
}

// CalendarMonth is the month containing t.
func CalendarMonth(t time.Time) Window {
	return Window{Start: MonthStart(t), End: MonthEnd(t)}
}

// Trailing is the rolling window [asOf-days, asOf].
func Trailing(asOf time.Time, days int) Window {
	return Window{Start: AddDays(asOf, -days), End: asOf}
}

// Ahead is the forward window [asOf, asOf+days].
func Ahead(asOf time.Time, days int) Window {
	return Window{Start: asOf, End: AddDays(asOf, days)}
}
