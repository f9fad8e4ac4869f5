package events

import (
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// EventType enumerates notification event identifiers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket_created"
	EventStatusChanged   EventType = "ticket_status_changed"
	EventPriorityChanged EventType = "ticket_priority_changed"
	EventAssigned        EventType = "ticket_assigned"
	EventCommentAdded    EventType = "ticket_comment_added"
	EventEscalated       EventType = "ticket_escalated"
	EventReopened        EventType = "ticket_reopened"
	EventSlaBreached     EventType = "ticket_sla_breached"

	// EventAny subscribes a handler to every published event.
	EventAny EventType = "*"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.ActorRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TenantID  string      `json:"tenant_id"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReferenceKey string                `json:"reference_key"`
	Category     string                `json:"category"`
	Priority     domain.TicketPriority `json:"priority"`
	RiskScore    int                   `json:"risk_score"`
	Title        string                `json:"title"`
	AssigneeTeam string                `json:"assignee_team,omitempty"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	NewDueAt    *time.Time            `json:"new_due_at,omitempty"`
}

// AssignedPayload payload.
type AssignedPayload struct {
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AssigneeTeam string  `json:"assignee_team,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string           `json:"comment_id"`
	AuthorRole  domain.ActorRole `json:"author_role"`
	IsInternal  bool             `json:"is_internal"`
	Sentiment   domain.Sentiment `json:"sentiment"`
	BodyPreview string           `json:"body_preview"`
}

// EscalatedPayload payload.
type EscalatedPayload struct {
	Reasons   []string `json:"reasons,omitempty"`
	RiskScore int      `json:"risk_score"`
	Note      string   `json:"note,omitempty"`
}

// ReopenedPayload payload.
type ReopenedPayload struct {
	Reason string `json:"reason"`
}

// SlaBreachedPayload payload.
type SlaBreachedPayload struct {
	DueAt     *time.Time `json:"due_at,omitempty"`
	RiskScore int        `json:"risk_score"`
}
