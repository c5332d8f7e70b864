package domain

import "time"

// DateLayout is the wire and key format for calendar days.
const DateLayout = "2006-01-02"

// DateOf drops the clock part of t, keeping the calendar day as seen in t's
// own location, and returns it as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from `from` to `to`. It is negative
// when `to` is earlier.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// DateKey formats the calendar day of t.
func DateKey(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DatePtr is a convenience for filling optional date fields.
func DatePtr(t time.Time) *time.Time {
	d := DateOf(t)
	return &d
}
