// Package catalog turns expanded recurrence dates into Occurrence records
// and groups them into week and month buckets.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"trailcal/internal/calendar"
	"trailcal/internal/model"
	"trailcal/internal/recurrence"
)

// RunError attaches a run's identity to a recurrence failure.
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string { return fmt.Sprintf("run %q: %v", e.RunID, e.Err) }
func (e *RunError) Unwrap() error { return e.Err }

// Catalog is every occurrence produced for one window.
type Catalog struct {
	Window recurrence.Window

	// Occurrences are grouped by run (runs in id order), each run's dates
	// ascending.
	Occurrences []model.Occurrence

	// Failed holds runs whose rule was malformed. They contribute nothing.
	Failed map[string]error

	// Skipped holds unsupported-input errors that dropped a single year's
	// occurrence of a run.
	Skipped []error

	byRun map[string][]int
}

// Build expands every run's recurrence inside w. A malformed rule fails
// only its own run; the returned error joins every RunError so callers can
// decide whether a partial catalog is acceptable.
func Build(runs map[string]model.Run, w recurrence.Window) (*Catalog, error) {
	c := &Catalog{
		Window: w,
		Failed: make(map[string]error),
		byRun:  make(map[string][]int),
	}

	ids := make([]string, 0, len(runs))
	for id := range runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		res, err := recurrence.Expand(runs[id].Recurrence, w)
		if err != nil {
			rerr := &RunError{RunID: id, Err: err}
			c.Failed[id] = rerr
			errs = append(errs, rerr)
			continue
		}
		for _, skipped := range res.Skipped {
			c.Skipped = append(c.Skipped, &RunError{RunID: id, Err: skipped})
		}
		for _, d := range res.Dates {
			c.add(id, d)
		}
	}

	return c, errors.Join(errs...)
}

func (c *Catalog) add(runID string, d time.Time) {
	_, mondayWeek := calendar.WeekNumber(d, calendar.WeekStartMonday)
	_, sundayWeek := calendar.WeekNumber(d, calendar.WeekStartSunday)
	occ := model.Occurrence{
		ID:               OccurrenceID(runID, d),
		RunID:            runID,
		Date:             d,
		WeekNumberMonday: mondayWeek,
		WeekNumberSunday: sundayWeek,
	}
	c.byRun[runID] = append(c.byRun[runID], len(c.Occurrences))
	c.Occurrences = append(c.Occurrences, occ)
}

// OccurrenceID is "{runId}-{YYYY-MM-DD}".
func OccurrenceID(runID string, d time.Time) string {
	return runID + "-" + calendar.Format(d)
}

// ForRun returns the occurrences of one run in date order.
func (c *Catalog) ForRun(runID string) []model.Occurrence {
	idx := c.byRun[runID]
	out := make([]model.Occurrence, len(idx))
	for i, j := range idx {
		out[i] = c.Occurrences[j]
	}
	return out
}
