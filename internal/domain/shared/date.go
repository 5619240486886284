package shared

import "time"

// DayOf truncates t to midnight of its business day in loc. All acquisition
// and order dates are normalized through this before they are compared, so
// day boundaries follow the configured business timezone rather than the
// server's local zone.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same business day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayOf(a, loc).Equal(DayOf(b, loc))
}
