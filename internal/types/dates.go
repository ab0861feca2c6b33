// README: Calendar-date helpers for the date leniency policy.
package types

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Tomorrow returns the calendar day after now.
func Tomorrow(now time.Time) time.Time {
	return Day(now).AddDate(0, 0, 1)
}

// NotPast advances a date strictly before today to tomorrow.
func NotPast(d, now time.Time) time.Time {
	if Day(d).Before(Day(now)) {
		return Tomorrow(now)
	}
	return Day(d)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
