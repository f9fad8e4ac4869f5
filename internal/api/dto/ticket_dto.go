package dto

import (
	"time"

	"github.com/spec-kit/benefits-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	EmployeeID    *string               `json:"employee_id"`
	EmployeeName  string                `json:"employee_name"`
	EmployeeEmail string                `json:"employee_email"`
	FeatureID     *string               `json:"feature_id"`
	FeatureName   string                `json:"feature_name"`
	Category      string                `json:"category"`
	Subcategory   string                `json:"subcategory"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Priority      domain.TicketPriority `json:"priority"`
	Channel       domain.TicketChannel  `json:"channel"`
	FormData      map[string]any        `json:"form_data"`
	Tags          []string              `json:"tags"`
}

// UpdateTicketRequest payload for partial updates.
type UpdateTicketRequest struct {
	Status       *domain.TicketStatus   `json:"status"`
	Priority     *domain.TicketPriority `json:"priority"`
	AssigneeID   *string                `json:"assignee_id"`
	AssigneeName *string                `json:"assignee_name"`
	AssigneeTeam *string                `json:"assignee_team"`
	Tags         *[]string              `json:"tags"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body        string              `json:"body"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Note *string `json:"note"`
}

// ReopenRequest payload.
type ReopenRequest struct {
	Reason string `json:"reason"`
}

// TriagePreviewRequest payload.
type TriagePreviewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// TicketSummary response for listings.
type TicketSummary struct {
	ID           string                `json:"id"`
	ReferenceKey string                `json:"reference_key"`
	TenantID     string                `json:"tenant_id"`
	Category     string                `json:"category"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	RiskScore    int                   `json:"risk_score"`
	Sentiment    domain.Sentiment      `json:"sentiment"`
	Tags         []string              `json:"tags"`
	AssigneeTeam string                `json:"assignee_team,omitempty"`
	SlaBreached  bool                  `json:"sla_breached"`
	DueAt        *time.Time            `json:"due_at"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with the thread.
type TicketDetailResponse struct {
	TicketSummary
	EmployeeID         *string              `json:"employee_id"`
	EmployeeName       string               `json:"employee_name,omitempty"`
	FeatureID          *string              `json:"feature_id"`
	FeatureName        string               `json:"feature_name,omitempty"`
	Subcategory        string               `json:"subcategory,omitempty"`
	Description        string               `json:"description"`
	Channel            domain.TicketChannel `json:"channel"`
	FormData           map[string]any       `json:"form_data,omitempty"`
	Summary            *string              `json:"summary"`
	SlaPolicyID        *string              `json:"sla_policy_id"`
	FirstResponseDueAt *time.Time           `json:"first_response_due_at"`
	FirstResponseAt    *time.Time           `json:"first_response_at"`
	SlaPausedAt        *time.Time           `json:"sla_paused_at"`
	SlaPauseMinutes    int                  `json:"sla_pause_minutes"`
	AssigneeID         *string              `json:"assignee_id"`
	AssigneeName       string               `json:"assignee_name,omitempty"`
	ResolvedAt         *time.Time           `json:"resolved_at"`
	ClosedAt           *time.Time           `json:"closed_at"`
	ReopenedAt         *time.Time           `json:"reopened_at"`
	Comments           []CommentResponse    `json:"comments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID          string               `json:"id"`
	AuthorID    string               `json:"author_id"`
	AuthorName  string               `json:"author_name,omitempty"`
	AuthorRole  domain.ActorRole     `json:"author_role"`
	Body        string               `json:"body"`
	IsInternal  bool                 `json:"is_internal"`
	Sentiment   domain.Sentiment     `json:"sentiment"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventResponse represents an audit trail entry.
type EventResponse struct {
	ID        string                 `json:"id"`
	EventType domain.TicketEventType `json:"event_type"`
	OldValue  map[string]any         `json:"old_value,omitempty"`
	NewValue  map[string]any         `json:"new_value,omitempty"`
	ActorID   string                 `json:"actor_id"`
	ActorRole domain.ActorRole       `json:"actor_role"`
	CreatedAt time.Time              `json:"created_at"`
}

// SlaStatusResponse reports SLA standing.
type SlaStatusResponse struct {
	TicketID                      string     `json:"ticket_id"`
	PolicyID                      *string    `json:"policy_id"`
	Paused                        bool       `json:"paused"`
	EffectivePauseMinutes         int        `json:"effective_pause_minutes"`
	FirstResponseDueAt            *time.Time `json:"first_response_due_at"`
	FirstResponseAt               *time.Time `json:"first_response_at"`
	FirstResponseBreached         bool       `json:"first_response_breached"`
	FirstResponseRemainingMinutes *int       `json:"first_response_remaining_minutes"`
	DueAt                         *time.Time `json:"due_at"`
	ResolvedAt                    *time.Time `json:"resolved_at"`
	ResolutionBreached            bool       `json:"resolution_breached"`
	ResolutionRemainingMinutes    *int       `json:"resolution_remaining_minutes"`
}

// TriagePreviewResponse reports a dry-run classification.
type TriagePreviewResponse struct {
	Category                 string                `json:"category"`
	Priority                 domain.TicketPriority `json:"priority"`
	Sentiment                domain.Sentiment      `json:"sentiment"`
	RiskScore                int                   `json:"risk_score"`
	Tags                     []string              `json:"tags"`
	PredictedResponseMinutes int                   `json:"predicted_response_minutes"`
}

// DuplicateCheckResponse lists likely duplicate ticket IDs.
type DuplicateCheckResponse struct {
	DuplicateTicketIDs []string `json:"duplicate_ticket_ids"`
}

// EscalationAdviceResponse reports the heuristic evaluation.
type EscalationAdviceResponse struct {
	ShouldEscalate bool     `json:"should_escalate"`
	Reasons        []string `json:"reasons"`
}

// SweepResponse reports a breach sweep outcome.
type SweepResponse struct {
	BreachedCount int `json:"breached_count"`
}
