package model

import "time"

// Date returns the calendar date y-m-d as UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date in t's own location and rebases it to UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// AddDays shifts a calendar date by n days.
func AddDays(date time.Time, n int) time.Time {
	return DateOf(date).AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}
