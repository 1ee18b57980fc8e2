// Package calendar holds the civil-date arithmetic used by the compiler:
// week numbering under Sunday- and Monday-start conventions, nth weekday of
// a month, and floating holiday lookup.
//
// All dates are civil dates represented as time.Time at midnight UTC, which
// keeps day arithmetic free of DST shifts.
package calendar

import (
	"fmt"
	"time"
)

// DateLayout is the ISO form used for every date attribute and id.
const DateLayout = "2006-01-02"

// WeekStart selects a week-numbering convention.
type WeekStart string

const (
	WeekStartSunday WeekStart = "sunday"
	WeekStartMonday WeekStart = "monday"
)

// WeekStarts lists both conventions in output order.
var WeekStarts = []WeekStart{WeekStartSunday, WeekStartMonday}

// Weekday returns the first day of a week under this convention.
func (s WeekStart) Weekday() time.Weekday {
	if s == WeekStartSunday {
		return time.Sunday
	}
	return time.Monday
}

// Date returns the civil date y-m-d.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Civil reduces t to its calendar date in t's own location.
func Civil(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// AddDays shifts a civil date by n days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween returns the whole days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("calendar: invalid date %q: %w", s, err)
	}
	return d, nil
}

// Format renders a civil date as YYYY-MM-DD.
func Format(d time.Time) string {
	return d.Format(DateLayout)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// firstStartOffset is the number of days from Jan 1 to the first day of the
// year falling on start's weekday (0 when Jan 1 is that weekday).
func firstStartOffset(year int, start WeekStart) int {
	jan1 := Date(year, time.January, 1)
	return (int(start.Weekday()) - int(jan1.Weekday()) + 7) % 7
}

// WeekNumber returns the (year, week) that d belongs to. Week 1 always
// contains January 1st. When Jan 1 is not the start weekday, week 1 is
// partial and week 2 begins on the first start weekday of the year.
func WeekNumber(d time.Time, start WeekStart) (year, week int) {
	d = Civil(d)
	year = d.Year()
	dayOfYear := d.YearDay() - 1
	offset := firstStartOffset(year, start)

	if offset == 0 {
		return year, dayOfYear/7 + 1
	}
	if dayOfYear < offset {
		return year, 1
	}
	return year, (dayOfYear-offset)/7 + 2
}

// WeekStartDate returns the first day of the 7-day span for (year, week).
// Week 1 of a year that does not begin on the start weekday starts in the
// previous December.
func WeekStartDate(year, week int, start WeekStart) time.Time {
	jan1 := Date(year, time.January, 1)
	offset := firstStartOffset(year, start)
	if offset == 0 {
		return AddDays(jan1, (week-1)*7)
	}
	return AddDays(jan1, offset+(week-2)*7)
}

// WeekID formats the week resource id, e.g. "2026-02-monday".
func WeekID(year, week int, start WeekStart) string {
	return fmt.Sprintf("%d-%02d-%s", year, week, start)
}

// MonthID formats the month resource id, e.g. "2026-01".
func MonthID(year int, month time.Month) string {
	return fmt.Sprintf("%d-%02d", year, int(month))
}

// NthWeekdayOfMonth returns the date of the n-th weekday in month. ok is
// false when the month has no such occurrence (e.g. a fifth Friday) or n is
// outside 1-5.
func NthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, n int) (time.Time, bool) {
	if n < 1 || n > 5 {
		return time.Time{}, false
	}
	first := Date(year, month, 1)
	delta := (int(weekday) - int(first.Weekday()) + 7) % 7
	day := 1 + delta + (n-1)*7
	if day > DaysIn(year, month) {
		return time.Time{}, false
	}
	return Date(year, month, day), true
}

// MostRecent returns the latest date on or before d that falls on weekday.
func MostRecent(d time.Time, weekday time.Weekday) time.Time {
	d = Civil(d)
	back := (int(d.Weekday()) - int(weekday) + 7) % 7
	return AddDays(d, -back)
}

// NextOnOrAfter returns the earliest date on or after d that falls on weekday.
func NextOnOrAfter(d time.Time, weekday time.Weekday) time.Time {
	d = Civil(d)
	ahead := (int(weekday) - int(d.Weekday()) + 7) % 7
	return AddDays(d, ahead)
}
