package scheduler

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// serviceCalendar decides which days get a route plan. Weekends and
// holidays are scheduled by default; both can be skipped by configuration.
type serviceCalendar struct {
	skipWeekends bool
	skipHolidays bool
	calendar     *cal.BusinessCalendar
}

// makeServiceCalendar builds a serviceCalendar.
// TODO:: the observed holiday set should come from configuration rather
// than being hardcoded to US federal holidays.
func makeServiceCalendar(skipWeekends bool, skipHolidays bool) *serviceCalendar {
	calendar := cal.NewBusinessCalendar()
	calendar.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.MemorialDay,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
		us.Juneteenth,
	)
	return &serviceCalendar{
		skipWeekends: skipWeekends,
		skipHolidays: skipHolidays,
		calendar:     calendar,
	}
}

// isServiceDay reports whether a route plan should be generated for day.
func (s *serviceCalendar) isServiceDay(day time.Time) bool {
	if s.skipWeekends {
		if weekday := day.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
			return false
		}
	}
	if s.skipHolidays {
		if _, observed, _ := s.calendar.IsHoliday(day); observed {
			return false
		}
	}
	return true
}
