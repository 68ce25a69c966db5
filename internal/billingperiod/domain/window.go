package domain

import "time"

// WindowContaining computes the monthly billing window [start, end) that
// contains now, anchored to the signup instant's day-of-month and clock time.
// The anchor day is clamped for short months (a Jan 31 signup rolls on
// Feb 28/29), mirroring how payment processors compute subscription cycles.
//
// Boundaries are a pure function of (signup, now): two concurrent callers
// always compute the same window, which is what makes rollover idempotent.
func WindowContaining(signup, now time.Time) (start, end time.Time) {
	signup = signup.UTC()
	now = now.UTC()
	if now.Before(signup) {
		now = signup
	}

	start = boundaryAt(signup, now.Year(), now.Month())
	if start.After(now) {
		py, pm := prevMonth(now.Year(), now.Month())
		start = boundaryAt(signup, py, pm)
	}
	ny, nm := nextMonth(start.Year(), start.Month())
	end = boundaryAt(signup, ny, nm)
	return start, end
}

// boundaryAt places the anchor in the given month, clamping the day-of-month.
func boundaryAt(signup time.Time, year int, month time.Month) time.Time {
	day := signup.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	h, m, s := signup.Clock()
	return time.Date(year, month, day, h, m, s, signup.Nanosecond(), time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}
