package catalog

import (
	"fmt"
	"sort"
	"time"

	"trailcal/internal/calendar"
	"trailcal/internal/model"
)

// Week is one calendar week under a single start-day convention.
type Week struct {
	ID        string
	Year      int
	Number    int
	StartDay  calendar.WeekStart
	StartDate time.Time
	EndDate   time.Time

	// Events are occurrence ids, sorted by date then earliest start time.
	Events []string
}

// Month is one calendar month.
type Month struct {
	ID    string
	Year  int
	Month time.Month

	Events []string
}

// BucketError reports an occurrence whose bucket was never created. It
// means the week arithmetic disagrees with itself.
type BucketError struct {
	OccurrenceID string
	Key          string
}

func (e *BucketError) Error() string {
	return fmt.Sprintf("occurrence %q maps to bucket %q which the window does not contain", e.OccurrenceID, e.Key)
}

type weekKey struct {
	year, week int
}

// Weeks buckets the catalog by week under start. Every week the window
// touches is returned, in chronological order, including empty ones.
func (c *Catalog) Weeks(start calendar.WeekStart, runs map[string]model.Run) ([]*Week, error) {
	var weeks []*Week
	byKey := make(map[weekKey]*Week)

	c.Window.Days(func(d time.Time) {
		y, w := calendar.WeekNumber(d, start)
		k := weekKey{y, w}
		if _, ok := byKey[k]; ok {
			return
		}
		first := calendar.WeekStartDate(y, w, start)
		wk := &Week{
			ID:        calendar.WeekID(y, w, start),
			Year:      y,
			Number:    w,
			StartDay:  start,
			StartDate: first,
			EndDate:   calendar.AddDays(first, 6),
			Events:    []string{},
		}
		byKey[k] = wk
		weeks = append(weeks, wk)
	})

	members := make(map[*Week][]model.Occurrence)
	for _, occ := range c.Occurrences {
		k := weekKey{occ.Date.Year(), occ.WeekNumberSunday}
		if start == calendar.WeekStartMonday {
			k.week = occ.WeekNumberMonday
		}
		wk, ok := byKey[k]
		if !ok {
			return nil, &BucketError{OccurrenceID: occ.ID, Key: calendar.WeekID(k.year, k.week, start)}
		}
		members[wk] = append(members[wk], occ)
	}

	for wk, occs := range members {
		wk.Events = sortedIDs(occs, runs)
	}
	return weeks, nil
}

// Months buckets the catalog by calendar month. Every month the window
// touches is returned, in chronological order, including empty ones.
func (c *Catalog) Months(runs map[string]model.Run) ([]*Month, error) {
	var months []*Month
	byID := make(map[string]*Month)

	c.Window.Days(func(d time.Time) {
		id := calendar.MonthID(d.Year(), d.Month())
		if _, ok := byID[id]; ok {
			return
		}
		m := &Month{ID: id, Year: d.Year(), Month: d.Month(), Events: []string{}}
		byID[id] = m
		months = append(months, m)
	})

	members := make(map[*Month][]model.Occurrence)
	for _, occ := range c.Occurrences {
		id := calendar.MonthID(occ.Date.Year(), occ.Date.Month())
		m, ok := byID[id]
		if !ok {
			return nil, &BucketError{OccurrenceID: occ.ID, Key: id}
		}
		members[m] = append(members[m], occ)
	}

	for m, occs := range members {
		m.Events = sortedIDs(occs, runs)
	}
	return months, nil
}

// sortedIDs orders occurrences by date, then by the parent run's earliest
// option start time, then by id.
func sortedIDs(occs []model.Occurrence, runs map[string]model.Run) []string {
	starts := make(map[string]string, len(occs))
	for _, occ := range occs {
		if _, ok := starts[occ.RunID]; !ok {
			starts[occ.RunID] = runs[occ.RunID].EarliestStartTime()
		}
	}

	sort.Slice(occs, func(i, j int) bool {
		a, b := occs[i], occs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if sa, sb := starts[a.RunID], starts[b.RunID]; sa != sb {
			return sa < sb
		}
		return a.ID < b.ID
	})

	ids := make([]string, len(occs))
	for i, occ := range occs {
		ids[i] = occ.ID
	}
	return ids
}
