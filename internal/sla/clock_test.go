package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

func businessHours() *domain.WorkingCalendar {
	return &domain.WorkingCalendar{
		Start: "09:00",
		End:   "17:00",
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	}
}

func TestAddWorkingMinutesNilCalendar(t *testing.T) {
	start := time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)
	got := AddWorkingMinutes(start, 180, nil)
	assert.Equal(t, start.Add(3*time.Hour), got)
}

func TestAddWorkingMinutesSpillsIntoNextWorkday(t *testing.T) {
	// Friday 16:00, 3 hours of work: one hour left today, the remaining
	// two land on Monday morning.
	start := time.Date(2026, 1, 9, 16, 0, 0, 0, time.UTC)
	got := AddWorkingMinutes(start, 180, businessHours())
	assert.Equal(t, time.Date(2026, 1, 12, 11, 0, 0, 0, time.UTC), got)
}

func TestAddWorkingMinutesWithinSameDay(t *testing.T) {
	start := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC) // Wednesday
	got := AddWorkingMinutes(start, 120, businessHours())
	assert.Equal(t, time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC), got)
}

func TestAddWorkingMinutesStartsOnWeekend(t *testing.T) {
	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) // Saturday
	got := AddWorkingMinutes(start, 60, businessHours())
	assert.Equal(t, time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC), got)
}

func TestAddWorkingMinutesBeforeWindowSnapsToStart(t *testing.T) {
	start := time.Date(2026, 1, 7, 6, 30, 0, 0, time.UTC)
	got := AddWorkingMinutes(start, 30, businessHours())
	assert.Equal(t, time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC), got)
}

func TestAddWorkingMinutesUnusableCalendarFallsBack(t *testing.T) {
	cal := &domain.WorkingCalendar{Start: "17:00", End: "09:00", Weekdays: []time.Weekday{time.Monday}}
	start := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	got := AddWorkingMinutes(start, 90, cal)
	assert.Equal(t, start.Add(90*time.Minute), got)
}

func TestAddWorkingMinutesZeroMinutes(t *testing.T) {
	start := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, start, AddWorkingMinutes(start, 0, businessHours()))
}
