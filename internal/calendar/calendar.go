// Package calendar provides calendar-date arithmetic. All values are
// time.Time normalized to midnight UTC; time of day and zone are ignored.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the ISO-8601 calendar date layout used for storage and display.
const Layout = "2006-01-02"

// Date truncates t to its calendar date at midnight UTC. The calendar
// fields of t are kept as observed in t's own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// New builds a calendar date from its components.
func New(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date.
func Today() time.Time {
	return Date(time.Now().UTC())
}

// Parse reads an ISO calendar date. Full RFC3339 timestamps are accepted
// and truncated to their date.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date(t), nil
}

// Format renders a calendar date as YYYY-MM-DD.
func Format(t time.Time) string {
	return Date(t).Format(Layout)
}

// DaysBetween returns the whole-day difference b - a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// AddDays adds a fixed number of days.
func AddDays(t time.Time, days int) time.Time {
	return Date(t).AddDate(0, 0, days)
}

// AddMonths adds n calendar months, keeping the day of month and clamping
// it to the last valid day of the target month (Jan 31 + 1 = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := Date(t).Date()

	// Normalize on day 1 so time.Date cannot overflow into the next month.
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	if last := DaysInMonth(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// AddYears adds n calendar years; Feb 29 clamps to Feb 28 in non-leap years.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
