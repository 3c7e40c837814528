package domain

import (
	"time"

	"github.com/jinzhu/now"
)

// Business dates are calendar days carried as UTC midnight.

// Date returns the business date for year, month and day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar day of t, as observed in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// withDayOfMonth moves t to day within the same month. Days past the end of
// the month clamp to its last day.
func withDayOfMonth(t time.Time, day int) time.Time {
	last := daysInMonth(t)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	y, m, _ := t.Date()
	return Date(y, m, day)
}

// daysInMonth returns the number of days in t's month.
func daysInMonth(t time.Time) int {
	return now.With(DateOf(t)).EndOfMonth().Day()
}

// addMonths adds n calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month = Feb 28/29) instead of overflowing.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := Date(y, m, 1).AddDate(0, n, 0)
	return withDayOfMonth(first, d)
}

func addYears(t time.Time, n int) time.Time {
	return addMonths(t, 12*n)
}

func daysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// monthsBetween counts complete months from one date to another, truncated
// towards zero.
func monthsBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	p1 := (fy*12+int(fm)-1)*32 + fd
	p2 := (ty*12+int(tm)-1)*32 + td
	return (p2 - p1) / 32
}
