package commands

import (
	"strconv"
	"strings"
	"time"
)

// Time of day given to a due date typed without one.
const (
	defaultDueHour   = 23
	defaultDueMinute = 59
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWhen reads a due date relative to now, in now's location. Accepted:
// today, tomorrow, +3d, a weekday name (its next occurrence), 2006-01-02,
// each optionally followed by 15:04; and 2006-01-02T15:04.
func ParseWhen(raw string, now time.Time) (time.Time, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) == 0 || len(fields) > 2 {
		return time.Time{}, invalid("unrecognised date %q", raw)
	}
	loc := now.Location()
	if len(fields) == 1 {
		if t, err := time.ParseInLocation("2006-01-02T15:04", strings.ToUpper(fields[0]), loc); err == nil {
			return t, nil
		}
	}

	day, err := parseDay(fields[0], now)
	if err != nil {
		return time.Time{}, invalid("unrecognised date %q", raw)
	}
	hour, minute := defaultDueHour, defaultDueMinute
	if len(fields) == 2 {
		clock, err := time.Parse("15:04", fields[1])
		if err != nil {
			return time.Time{}, invalid("unrecognised time %q", fields[1])
		}
		hour, minute = clock.Hour(), clock.Minute()
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

func parseDay(word string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch word {
	case "today":
		return today, nil
	case "tomorrow", "tmr":
		return today.AddDate(0, 0, 1), nil
	}
	if wd, ok := weekdays[word]; ok {
		delta := (int(wd) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return today.AddDate(0, 0, delta), nil
	}
	if strings.HasPrefix(word, "+") && strings.HasSuffix(word, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(word, "+"), "d"))
		if err == nil && n >= 0 {
			return today.AddDate(0, 0, n), nil
		}
	}
	return time.ParseInLocation("2006-01-02", word, now.Location())
}
