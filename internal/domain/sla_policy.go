package domain

import "time"

// WorkingCalendar restricts SLA countdown to configured working windows.
// Start and End use the "HH:MM" wall-clock format; Weekdays lists the
// active days. A nil calendar means raw wall-clock minutes.
type WorkingCalendar struct {
	Start    string
	End      string
	Weekdays []time.Weekday
}

// IsWorkday reports whether the weekday is part of the calendar.
func (c *WorkingCalendar) IsWorkday(day time.Weekday) bool {
	for _, active := range c.Weekdays {
		if active == day {
			return true
		}
	}
	return false
}

// SlaPolicy defines response and resolution targets for a priority,
// optionally scoped to a tenant and/or feature. Read-only from the
// engine's perspective; edits apply only to tickets created afterwards.
type SlaPolicy struct {
	ID                   string
	TenantID             *string
	FeatureID            *string
	Priority             TicketPriority
	FirstResponseMinutes int
	ResolutionMinutes    int
	Calendar             *WorkingCalendar
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
