package domain

import "time"

// TicketEventType captures what changed in an audit entry.
type TicketEventType string

const (
	EventTicketCreated  TicketEventType = "ticket_created"
	EventStatusChange   TicketEventType = "status_change"
	EventPriorityChange TicketEventType = "priority_change"
	EventAssignment     TicketEventType = "assignment"
	EventTagChange      TicketEventType = "tag_change"
	EventEscalation     TicketEventType = "escalation"
	EventReopen         TicketEventType = "reopen"
	EventSlaPause       TicketEventType = "sla_pause"
	EventSlaResume      TicketEventType = "sla_resume"
	EventSlaBreach      TicketEventType = "sla_breach"
)

// TicketEvent is an immutable audit trail entry. Events are never
// mutated or deleted; every state-changing operation appends at least one.
type TicketEvent struct {
	ID        string
	TicketID  string
	TenantID  string
	EventType TicketEventType
	OldValue  map[string]any
	NewValue  map[string]any
	ActorID   string
	ActorRole ActorRole
	CreatedAt time.Time
}
