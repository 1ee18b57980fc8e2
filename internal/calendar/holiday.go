package calendar

import (
	"errors"
	"fmt"
	"time"

	"trailcal/internal/model"
)

var (
	// ErrUnsupportedHoliday is returned for holiday names outside the closed set.
	ErrUnsupportedHoliday = errors.New("unsupported holiday")
	// ErrHolidayOutOfRange is returned when a table-driven holiday has no
	// entry for the requested year.
	ErrHolidayOutOfRange = errors.New("holiday year outside lookup table")
)

// IsUnsupported reports whether err is an unsupported-input error: the
// holiday cannot be resolved, but the rest of the compile can continue.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedHoliday) || errors.Is(err, ErrHolidayOutOfRange)
}

// Solstice dates as US Pacific civil dates. There is no astronomical
// fallback; years outside the table fail with ErrHolidayOutOfRange.
var summerSolstice = map[int]int{
	2024: 20, 2025: 20, 2026: 21, 2027: 21, 2028: 20, 2029: 20,
	2030: 21, 2031: 21, 2032: 20, 2033: 20, 2034: 20, 2035: 21,
}

var winterSolstice = map[int]int{
	2024: 21, 2025: 21, 2026: 21, 2027: 21, 2028: 21, 2029: 21,
	2030: 21, 2031: 21, 2032: 20, 2033: 21, 2034: 21, 2035: 21,
}

// FloatingHolidayDate resolves a named floating holiday for year.
func FloatingHolidayDate(year int, name model.Holiday) (time.Time, error) {
	switch name {
	case model.HolidayThanksgiving:
		d, _ := NthWeekdayOfMonth(year, time.November, time.Thursday, 4)
		return d, nil
	case model.HolidaySummerSolstice:
		return fromTable(summerSolstice, year, time.June, name)
	case model.HolidayWinterSolstice:
		return fromTable(winterSolstice, year, time.December, name)
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedHoliday, name)
	}
}

func fromTable(table map[int]int, year int, month time.Month, name model.Holiday) (time.Time, error) {
	day, ok := table[year]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s %d", ErrHolidayOutOfRange, name, year)
	}
	return Date(year, month, day), nil
}
