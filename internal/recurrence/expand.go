// Package recurrence expands authored recurrence rules into the concrete
// dates that fall inside a compile window.
package recurrence

import (
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"trailcal/internal/calendar"
	"trailcal/internal/model"
)

// rruleWeekdays maps time.Weekday (Sunday = 0) onto rrule weekdays.
var rruleWeekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// Result is the outcome of expanding one rule.
type Result struct {
	// Dates are strictly increasing and all inside the window.
	Dates []time.Time

	// Skipped records unsupported-input errors (e.g. a solstice year
	// missing from the lookup table). Each one removed a single year's
	// occurrence; the rest of the rule still expanded.
	Skipped []error
}

// Expand computes every date of rule inside w.
//
// Supported shapes:
//
//   - once: date
//   - weekly: day, interval; date is required when interval > 1
//   - monthly: day, weekNumber, interval; date is required when interval > 1
//   - annually: exactly one of holiday, date, or day+weekNumber+monthNumber
//
// A malformed rule returns a *RuleError naming the offending field. Fields
// that do not belong to the rule's frequency are malformed too.
func Expand(rule model.Recurrence, w Window) (Result, error) {
	if err := checkFields(rule); err != nil {
		return Result{}, err
	}
	switch rule.Frequency {
	case model.FrequencyOnce:
		return expandOnce(rule, w)
	case model.FrequencyWeekly:
		return expandWeekly(rule, w)
	case model.FrequencyMonthly:
		return expandMonthly(rule, w)
	case model.FrequencyAnnually:
		return expandAnnually(rule, w)
	case "":
		return Result{}, missing("frequency")
	default:
		return Result{}, invalid("frequency", "%q", rule.Frequency)
	}
}

func expandOnce(rule model.Recurrence, w Window) (Result, error) {
	anchor, ok, err := anchorDate(rule)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, missing("date")
	}
	var res Result
	if w.Contains(anchor) {
		res.Dates = append(res.Dates, anchor)
	}
	return res, nil
}

func expandWeekly(rule model.Recurrence, w Window) (Result, error) {
	day, err := weekday(rule)
	if err != nil {
		return Result{}, err
	}
	interval, err := positiveInterval(rule)
	if err != nil {
		return Result{}, err
	}
	anchor, hasAnchor, err := anchorDate(rule)
	if err != nil {
		return Result{}, err
	}
	if interval > 1 && !hasAnchor {
		return Result{}, missing("date")
	}
	if hasAnchor && anchor.Weekday() != day {
		return Result{}, mismatch("date", "%s is a %s, rule day is %s", calendar.Format(anchor), anchor.Weekday(), day)
	}

	var first time.Time
	switch {
	case !hasAnchor:
		first = calendar.NextOnOrAfter(w.Start, day)
	case !anchor.Before(w.Start):
		first = anchor
	default:
		// Fast-forward in whole interval jumps to land on or after the
		// window start.
		step := 7 * interval
		elapsed := calendar.DaysBetween(anchor, w.Start)
		jumps := (elapsed + step - 1) / step
		first = calendar.AddDays(anchor, jumps*step)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Interval:  interval,
		Dtstart:   first,
		Byweekday: []rrule.Weekday{rruleWeekdays[day]},
	})
	if err != nil {
		return Result{}, invalid("interval", "%v", err)
	}
	return Result{Dates: between(r, w)}, nil
}

func expandMonthly(rule model.Recurrence, w Window) (Result, error) {
	day, err := weekday(rule)
	if err != nil {
		return Result{}, err
	}
	n, err := ordinal(rule)
	if err != nil {
		return Result{}, err
	}
	interval, err := positiveInterval(rule)
	if err != nil {
		return Result{}, err
	}
	anchor, hasAnchor, err := anchorDate(rule)
	if err != nil {
		return Result{}, err
	}
	if interval > 1 && !hasAnchor {
		return Result{}, missing("date")
	}

	windowMonth := monthIndex(w.Start)
	startMonth := windowMonth
	if hasAnchor {
		want, ok := calendar.NthWeekdayOfMonth(anchor.Year(), anchor.Month(), day, n)
		if !ok || !want.Equal(anchor) {
			return Result{}, mismatch("date", "%s is not weekday %d #%d of its month", calendar.Format(anchor), day, n)
		}
		anchorMonth := monthIndex(anchor)
		switch {
		case anchorMonth >= windowMonth:
			startMonth = anchorMonth
		default:
			jumps := (windowMonth - anchorMonth + interval - 1) / interval
			startMonth = anchorMonth + jumps*interval
		}
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Interval:  interval,
		Dtstart:   fromMonthIndex(startMonth),
		Byweekday: []rrule.Weekday{rruleWeekdays[day].Nth(n)},
	})
	if err != nil {
		return Result{}, invalid("weekNumber", "%v", err)
	}
	return Result{Dates: between(r, w)}, nil
}

func expandAnnually(rule model.Recurrence, w Window) (Result, error) {
	var res Result

	switch {
	case rule.Holiday != nil && *rule.Holiday != "":
		for _, year := range w.Years() {
			d, err := calendar.FloatingHolidayDate(year, *rule.Holiday)
			if err != nil {
				res.Skipped = append(res.Skipped, err)
				continue
			}
			if w.Contains(d) {
				res.Dates = append(res.Dates, d)
			}
		}

	case rule.Date != nil && *rule.Date != "":
		anchor, _, err := anchorDate(rule)
		if err != nil {
			return Result{}, err
		}
		for _, year := range w.Years() {
			d := calendar.Date(year, anchor.Month(), anchor.Day())
			if d.Month() != anchor.Month() || d.Before(anchor) {
				// Feb 29 in a non-leap year, or before the first occurrence.
				continue
			}
			if w.Contains(d) {
				res.Dates = append(res.Dates, d)
			}
		}

	case rule.Day != nil || rule.WeekNumber != nil || rule.MonthNumber != nil:
		day, err := weekday(rule)
		if err != nil {
			return Result{}, err
		}
		n, err := ordinal(rule)
		if err != nil {
			return Result{}, err
		}
		if rule.MonthNumber == nil {
			return Result{}, missing("monthNumber")
		}
		month := *rule.MonthNumber
		if month < 1 || month > 12 {
			return Result{}, invalid("monthNumber", "%d", month)
		}
		for _, year := range w.Years() {
			d, ok := calendar.NthWeekdayOfMonth(year, time.Month(month), day, n)
			if ok && w.Contains(d) {
				res.Dates = append(res.Dates, d)
			}
		}

	default:
		return Result{}, missing("holiday|date|monthNumber")
	}

	return res, nil
}

// allowedFields lists the optional fields each frequency reads.
var allowedFields = map[model.Frequency][]string{
	model.FrequencyOnce:     {"date"},
	model.FrequencyWeekly:   {"day", "interval", "date"},
	model.FrequencyMonthly:  {"day", "weekNumber", "interval", "date"},
	model.FrequencyAnnually: {"holiday", "date", "day", "weekNumber", "monthNumber"},
}

// presentFields returns the optional fields set on rule. An interval of 0
// or 1 is the default and counts as absent.
func presentFields(rule model.Recurrence) []string {
	var out []string
	if rule.Day != nil {
		out = append(out, "day")
	}
	if rule.Interval != 0 && rule.Interval != 1 {
		out = append(out, "interval")
	}
	if rule.WeekNumber != nil {
		out = append(out, "weekNumber")
	}
	if rule.MonthNumber != nil {
		out = append(out, "monthNumber")
	}
	if rule.Date != nil && *rule.Date != "" {
		out = append(out, "date")
	}
	if rule.Holiday != nil && *rule.Holiday != "" {
		out = append(out, "holiday")
	}
	return out
}

func checkFields(rule model.Recurrence) error {
	allowed, ok := allowedFields[rule.Frequency]
	if !ok {
		return nil
	}
	present := presentFields(rule)
	for _, f := range present {
		if !slices.Contains(allowed, f) {
			return conflict(f, "not used by %s rules", rule.Frequency)
		}
	}
	if rule.Frequency != model.FrequencyAnnually {
		return nil
	}

	var shapes []string
	if slices.Contains(present, "holiday") {
		shapes = append(shapes, "holiday")
	}
	if slices.Contains(present, "date") {
		shapes = append(shapes, "date")
	}
	if slices.Contains(present, "day") || slices.Contains(present, "weekNumber") || slices.Contains(present, "monthNumber") {
		shapes = append(shapes, "monthNumber")
	}
	if len(shapes) > 1 {
		return conflict(strings.Join(shapes, "|"), "annual sub-shapes are mutually exclusive")
	}
	return nil
}

// between returns the rule's dates inside w. rrule's inclusive upper
// bound is trimmed to keep the window half-open.
func between(r *rrule.RRule, w Window) []time.Time {
	var out []time.Time
	for _, t := range r.Between(w.Start, w.End, true) {
		d := calendar.Civil(t)
		if w.Contains(d) {
			out = append(out, d)
		}
	}
	return out
}

func weekday(rule model.Recurrence) (time.Weekday, error) {
	if rule.Day == nil {
		return 0, missing("day")
	}
	if *rule.Day < 0 || *rule.Day > 6 {
		return 0, invalid("day", "%d", *rule.Day)
	}
	return time.Weekday(*rule.Day), nil
}

func ordinal(rule model.Recurrence) (int, error) {
	if rule.WeekNumber == nil {
		return 0, missing("weekNumber")
	}
	if *rule.WeekNumber < 1 || *rule.WeekNumber > 5 {
		return 0, invalid("weekNumber", "%d", *rule.WeekNumber)
	}
	return *rule.WeekNumber, nil
}

func positiveInterval(rule model.Recurrence) (int, error) {
	if rule.Interval == 0 {
		return 1, nil
	}
	if rule.Interval < 0 {
		return 0, invalid("interval", "%d", rule.Interval)
	}
	return rule.Interval, nil
}

func anchorDate(rule model.Recurrence) (time.Time, bool, error) {
	if rule.Date == nil || *rule.Date == "" {
		return time.Time{}, false, nil
	}
	d, err := calendar.ParseDate(*rule.Date)
	if err != nil {
		return time.Time{}, false, &RuleError{Field: "date", Err: err}
	}
	return d, true, nil
}

func monthIndex(d time.Time) int {
	return d.Year()*12 + int(d.Month()) - 1
}

func fromMonthIndex(i int) time.Time {
	return calendar.Date(i/12, time.Month(i%12+1), 1)
}
