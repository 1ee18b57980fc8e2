package recurrence

import (
	"time"

	"trailcal/internal/calendar"
)

// WindowDays is the length of the compile horizon: 53 weeks, enough for
// 52 weekly or annual cycles plus slack.
const WindowDays = 371

// Window is the half-open date range [Start, End) that expansion covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow anchors the horizon on the most recent Sunday on or before the
// civil date of now (now's own location decides the date).
func NewWindow(now time.Time) Window {
	start := calendar.MostRecent(calendar.Civil(now), time.Sunday)
	return Window{Start: start, End: calendar.AddDays(start, WindowDays)}
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && d.Before(w.End)
}

// Years lists every calendar year that overlaps the window, ascending.
func (w Window) Years() []int {
	last := calendar.AddDays(w.End, -1).Year()
	years := make([]int, 0, last-w.Start.Year()+1)
	for y := w.Start.Year(); y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// Days calls fn for each date in the window, in order.
func (w Window) Days(fn func(time.Time)) {
	for d := w.Start; d.Before(w.End); d = calendar.AddDays(d, 1) {
		fn(d)
	}
}
