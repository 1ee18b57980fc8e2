// Package ics renders occurrences as iCalendar feeds so that runs can be
// subscribed to from ordinary calendar clients.
package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"trailcal/internal/calendar"
)

const productService = "trailcal"

// ErrStartTime is returned for a start time that is not HH:MM.
var ErrStartTime = errors.New("invalid start time")

// Event is a single dated entry in a feed.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string

	// Date is the civil date of the occurrence.
	Date time.Time
	// StartTime is "HH:MM" local to Feed.Location. Empty means all-day.
	StartTime string

	Lat, Lng *float64
}

// Feed holds the settings shared by every event of one calendar.
type Feed struct {
	Name     string
	Location *time.Location
	Duration time.Duration

	// Stamp becomes every DTSTAMP, which keeps output reproducible for a
	// given compile time.
	Stamp time.Time
}

// Render serializes events as a VCALENDAR, in the order given.
func (f Feed) Render(events []Event) ([]byte, error) {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}

	cal := ical.NewCalendarFor(productService)
	cal.SetMethod(ical.MethodPublish)
	if f.Name != "" {
		cal.SetName(f.Name)
		cal.SetXWRCalName(f.Name)
	}
	cal.SetXWRTimezone(loc.String())

	for _, ev := range events {
		vev := cal.AddEvent(ev.UID)
		vev.SetDtStampTime(f.Stamp)
		vev.SetSummary(ev.Summary)

		if ev.StartTime == "" {
			vev.SetAllDayStartAt(ev.Date)
			vev.SetAllDayEndAt(calendar.AddDays(ev.Date, 1))
		} else {
			start, err := StartAt(ev.Date, ev.StartTime, loc)
			if err != nil {
				return nil, fmt.Errorf("event %q: %w", ev.UID, err)
			}
			vev.SetStartAt(start)
			vev.SetEndAt(start.Add(f.Duration))
		}

		if ev.Description != "" {
			vev.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vev.SetLocation(ev.Location)
		}
		if ev.URL != "" {
			vev.SetURL(ev.URL)
		}
		if ev.Lat != nil && ev.Lng != nil {
			vev.SetGeo(*ev.Lat, *ev.Lng)
		}
	}

	return []byte(cal.Serialize()), nil
}

// StartAt combines a civil date and an "HH:MM" wall-clock time in loc.
func StartAt(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q", ErrStartTime, hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
