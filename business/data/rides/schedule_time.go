package rides

import (
	"fmt"
	"time"
)

// Persisted time formats. All times are local.
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	TimeOfDayLayout = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05"
)

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" into seconds from midnight.
func ParseTimeOfDay(s string) (int, error) {
	var hour, minute, second int
	n, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second)
	if err != nil && n < 2 {
		return 0, fmt.Errorf("cannot parse time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return hour*3600 + minute*60 + second, nil
}

// AtTimeOfDay returns the moment daySeconds past midnight on day's date,
// in day's location.
func AtTimeOfDay(day time.Time, daySeconds int) time.Time {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(daySeconds) * time.Second)
}
