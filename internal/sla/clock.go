package sla

import (
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// AddWorkingMinutes adds a duration of working minutes to start. With a nil
// or unusable calendar the minutes are raw wall-clock minutes. Otherwise
// only minutes inside the configured working windows are counted: the walk
// skips non-working weekdays, snaps to the window start when before it, and
// spills leftover minutes into the next working day.
func AddWorkingMinutes(start time.Time, minutes int, cal *domain.WorkingCalendar) time.Time {
	if minutes <= 0 {
		return start
	}
	if !calendarUsable(cal) {
		return start.Add(time.Duration(minutes) * time.Minute)
	}

	remaining := time.Duration(minutes) * time.Minute
	cur := start
	for {
		if !cal.IsWorkday(cur.Weekday()) {
			cur = nextWorkdayStart(cur, cal)
			continue
		}
		windowStart := atClock(cur, cal.Start)
		windowEnd := atClock(cur, cal.End)
		if cur.Before(windowStart) {
			cur = windowStart
			continue
		}
		if !cur.Before(windowEnd) {
			cur = nextWorkdayStart(cur, cal)
			continue
		}
		available := windowEnd.Sub(cur)
		if remaining <= available {
			return cur.Add(remaining)
		}
		remaining -= available
		cur = nextWorkdayStart(cur, cal)
	}
}

func calendarUsable(cal *domain.WorkingCalendar) bool {
	if cal == nil || len(cal.Weekdays) == 0 {
		return false
	}
	startH, startM, okStart := parseClock(cal.Start)
	endH, endM, okEnd := parseClock(cal.End)
	if !okStart || !okEnd {
		return false
	}
	return endH*60+endM > startH*60+startM
}

func nextWorkdayStart(t time.Time, cal *domain.WorkingCalendar) time.Time {
	next := t.AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		if cal.IsWorkday(next.Weekday()) {
			return atClock(next, cal.Start)
		}
		next = next.AddDate(0, 0, 1)
	}
	return atClock(next, cal.Start)
}

func atClock(day time.Time, clock string) time.Time {
	hour, minute, _ := parseClock(clock)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func parseClock(clock string) (hour, minute int, ok bool) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
