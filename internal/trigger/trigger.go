package trigger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/foundryerp/internal/models"
)

// ErrUnsupportedFrequency is returned for any frequency outside
// daily/weekly/monthly.
var ErrUnsupportedFrequency = errors.New("unsupported frequency")

const (
	defaultDayOfWeek  = 1 // Monday
	defaultDayOfMonth = 1
)

// CronSpec translates a schedule into a standard 5-field cron spec.
// Pure function; no side effects.
//
// daily schedules ignore both day fields. Weekly defaults to Monday
// when DayOfWeek is unset; monthly defaults to the 1st when DayOfMonth
// is unset. A monthly DayOfMonth that a given month does not have
// (e.g. 31 in February) follows cron's native handling: the firing is
// skipped for that month.
func CronSpec(schedule *models.ReportSchedule) (string, error) {
	hour, minute, err := ParseTimeOfDay(schedule.TimeOfDay)
	if err != nil {
		return "", err
	}

	switch strings.ToLower(schedule.Frequency) {
	case models.FrequencyDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour), nil
	case models.FrequencyWeekly:
		dow := defaultDayOfWeek
		if schedule.DayOfWeek != nil {
			dow = *schedule.DayOfWeek
		}
		return fmt.Sprintf("%d %d * * %d", minute, hour, dow), nil
	case models.FrequencyMonthly:
		dom := defaultDayOfMonth
		if schedule.DayOfMonth != nil {
			dom = *schedule.DayOfMonth
		}
		return fmt.Sprintf("%d %d %d * *", minute, hour, dom), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, schedule.Frequency)
	}
}

// ParseTimeOfDay parses "HH:MM" in 24h form. A trailing seconds part
// ("HH:MM:SS") is accepted and ignored.
func ParseTimeOfDay(timeOfDay string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(timeOfDay), ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time of day: %q", timeOfDay)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in time of day: %q", timeOfDay)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in time of day: %q", timeOfDay)
	}

	return hour, minute, nil
}
