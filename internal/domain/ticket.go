package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew              TicketStatus = "new"
	TicketStatusOpen             TicketStatus = "open"
	TicketStatusInProgress       TicketStatus = "in_progress"
	TicketStatusAwaitingCustomer TicketStatus = "awaiting_customer"
	TicketStatusAwaitingInternal TicketStatus = "awaiting_internal"
	TicketStatusEscalated        TicketStatus = "escalated"
	TicketStatusResolved         TicketStatus = "resolved"
	TicketStatusClosed           TicketStatus = "closed"
	TicketStatusReopened         TicketStatus = "reopened"
)

// IsTerminal reports whether the status ends active processing.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// Priorities lists all priorities in descending rank order.
var Priorities = []TicketPriority{
	TicketPriorityCritical,
	TicketPriorityHigh,
	TicketPriorityMedium,
	TicketPriorityLow,
}

// IsValid reports whether the value is a known priority.
func (p TicketPriority) IsValid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Sentiment is a deterministic label assigned by the triage rules.
type Sentiment string

const (
	SentimentFrustrated Sentiment = "frustrated"
	SentimentUrgent     Sentiment = "urgent"
	SentimentNegative   Sentiment = "negative"
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
)

// TicketChannel records how the ticket reached the desk.
type TicketChannel string

const (
	ChannelWeb   TicketChannel = "web"
	ChannelEmail TicketChannel = "email"
	ChannelChat  TicketChannel = "chat"
	ChannelPhone TicketChannel = "phone"
)

// Ticket is the aggregate for employee support requests.
type Ticket struct {
	ID            string
	ReferenceKey  string
	TenantID      string
	EmployeeID    *string
	EmployeeName  string
	EmployeeEmail string
	FeatureID     *string
	FeatureName   string
	Category      string
	Subcategory   string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	Channel       TicketChannel
	FormData      map[string]any
	Tags          []string
	RiskScore     int
	Sentiment     Sentiment
	Summary       *string

	SlaPolicyID        *string
	FirstResponseDueAt *time.Time
	FirstResponseAt    *time.Time
	DueAt              *time.Time
	SlaPausedAt        *time.Time
	SlaPauseMinutes    int
	SlaBreached        bool

	AssigneeID   *string
	AssigneeName string
	AssigneeTeam string

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
	ClosedAt   *time.Time
	ReopenedAt *time.Time
}

// HasTag reports whether the ticket already carries the tag.
func (t *Ticket) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}
