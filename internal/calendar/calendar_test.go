package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailcal/internal/model"
)

func TestWeekNumber_Jan1IsAlwaysWeekOne(t *testing.T) {
	for year := 2020; year <= 2040; year++ {
		for _, start := range WeekStarts {
			y, w := WeekNumber(Date(year, time.January, 1), start)
			assert.Equal(t, year, y)
			assert.Equal(t, 1, w, "year %d start %s", year, start)
		}
	}
}

func TestWeekNumber_ConsecutiveDays(t *testing.T) {
	for _, start := range WeekStarts {
		d := Date(2024, time.January, 1)
		end := Date(2031, time.January, 1)
		prevYear, prevWeek := WeekNumber(d, start)
		for d = AddDays(d, 1); d.Before(end); d = AddDays(d, 1) {
			y, w := WeekNumber(d, start)
			require.GreaterOrEqual(t, w, 1)
			if y != prevYear {
				assert.Equal(t, 1, w, "new year must start at week 1 (%s)", Format(d))
			} else {
				assert.Contains(t, []int{prevWeek, prevWeek + 1}, w, "%s %s", Format(d), start)
				if w == prevWeek+1 {
					assert.Equal(t, start.Weekday(), d.Weekday(), "week advanced off the start day at %s", Format(d))
				}
			}
			prevYear, prevWeek = y, w
		}
	}
}

func TestWeekNumber_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		date  time.Time
		start WeekStart
		want  int
	}{
		{"2026 jan 1 thursday monday-start", Date(2026, 1, 1), WeekStartMonday, 1},
		{"2026 first monday", Date(2026, 1, 5), WeekStartMonday, 2},
		{"2026 sunday before first monday", Date(2026, 1, 4), WeekStartMonday, 1},
		{"2026 first sunday", Date(2026, 1, 4), WeekStartSunday, 2},
		{"2026 saturday jan 3 sunday-start", Date(2026, 1, 3), WeekStartSunday, 1},
		{"2024 jan 1 is monday", Date(2024, 1, 8), WeekStartMonday, 2},
		{"2023 jan 1 is sunday", Date(2023, 1, 7), WeekStartSunday, 1},
		{"2023 jan 1 sunday, monday-start", Date(2023, 1, 2), WeekStartMonday, 2},
		{"2026 dec 31", Date(2026, 12, 31), WeekStartMonday, 53},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, w := WeekNumber(tt.date, tt.start)
			assert.Equal(t, tt.want, w)
		})
	}
}

func TestWeekStartDate(t *testing.T) {
	// Week 1 of 2026 (monday-start) is partial and spans back to Dec 29.
	assert.Equal(t, Date(2025, 12, 29), WeekStartDate(2026, 1, WeekStartMonday))
	assert.Equal(t, Date(2026, 1, 5), WeekStartDate(2026, 2, WeekStartMonday))
	assert.Equal(t, Date(2024, 1, 1), WeekStartDate(2024, 1, WeekStartMonday))
	assert.Equal(t, Date(2024, 1, 8), WeekStartDate(2024, 2, WeekStartMonday))

	// Every date lies within its own week's span.
	for _, start := range WeekStarts {
		for d := Date(2025, 1, 1); d.Before(Date(2028, 1, 1)); d = AddDays(d, 1) {
			y, w := WeekNumber(d, start)
			first := WeekStartDate(y, w, start)
			assert.Equal(t, start.Weekday(), first.Weekday())
			days := DaysBetween(first, d)
			assert.True(t, days >= 0 && days < 7, "%s not in week %d-%d", Format(d), y, w)
		}
	}
}

func TestNthWeekdayOfMonth(t *testing.T) {
	d, ok := NthWeekdayOfMonth(2026, time.January, time.Tuesday, 2)
	require.True(t, ok)
	assert.Equal(t, Date(2026, 1, 13), d)

	// January 2026 has five Saturdays, February 2026 only four.
	d, ok = NthWeekdayOfMonth(2026, time.January, time.Saturday, 5)
	require.True(t, ok)
	assert.Equal(t, Date(2026, 1, 31), d)
	_, ok = NthWeekdayOfMonth(2026, time.February, time.Saturday, 5)
	assert.False(t, ok)

	_, ok = NthWeekdayOfMonth(2026, time.March, time.Monday, 0)
	assert.False(t, ok)
	_, ok = NthWeekdayOfMonth(2026, time.March, time.Monday, 6)
	assert.False(t, ok)
}

func TestNthWeekdayOfMonth_Properties(t *testing.T) {
	for year := 2025; year <= 2027; year++ {
		for month := time.January; month <= time.December; month++ {
			for wd := time.Sunday; wd <= time.Saturday; wd++ {
				for n := 1; n <= 5; n++ {
					d, ok := NthWeekdayOfMonth(year, month, wd, n)
					if !ok {
						assert.Equal(t, 5, n, "only a fifth occurrence may be missing")
						continue
					}
					assert.Equal(t, wd, d.Weekday())
					assert.Equal(t, month, d.Month())
					assert.Equal(t, (d.Day()-1)/7+1, n)
				}
			}
		}
	}
}

func TestFloatingHolidayDate(t *testing.T) {
	d, err := FloatingHolidayDate(2026, model.HolidayThanksgiving)
	require.NoError(t, err)
	assert.Equal(t, Date(2026, 11, 26), d)

	d, err = FloatingHolidayDate(2026, model.HolidayWinterSolstice)
	require.NoError(t, err)
	assert.Equal(t, Date(2026, 12, 21), d)

	d, err = FloatingHolidayDate(2027, model.HolidaySummerSolstice)
	require.NoError(t, err)
	assert.Equal(t, Date(2027, 6, 21), d)

	_, err = FloatingHolidayDate(2099, model.HolidayWinterSolstice)
	assert.ErrorIs(t, err, ErrHolidayOutOfRange)
	assert.True(t, IsUnsupported(err))

	_, err = FloatingHolidayDate(2026, model.Holiday("Groundhog Day"))
	assert.ErrorIs(t, err, ErrUnsupportedHoliday)
	assert.True(t, IsUnsupported(err))
}

func TestMostRecentAndNext(t *testing.T) {
	// 2026-10-19 is a Monday.
	assert.Equal(t, Date(2026, 10, 18), MostRecent(Date(2026, 10, 19), time.Sunday))
	assert.Equal(t, Date(2026, 10, 18), MostRecent(Date(2026, 10, 18), time.Sunday))
	assert.Equal(t, Date(2026, 10, 21), NextOnOrAfter(Date(2026, 10, 19), time.Wednesday))
	assert.Equal(t, Date(2026, 10, 19), NextOnOrAfter(Date(2026, 10, 19), time.Monday))
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "2026-02-monday", WeekID(2026, 2, WeekStartMonday))
	assert.Equal(t, "2026-13-sunday", WeekID(2026, 13, WeekStartSunday))
	assert.Equal(t, "2026-03", MonthID(2026, time.March))
	assert.Equal(t, 29, DaysIn(2028, time.February))
}
