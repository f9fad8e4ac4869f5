package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/escalation"
	"github.com/spec-kit/benefits-desk/internal/events"
	"github.com/spec-kit/benefits-desk/internal/repository"
	"github.com/spec-kit/benefits-desk/internal/sla"
	"github.com/spec-kit/benefits-desk/internal/triage"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

const escalationRiskFloor = 80

const breachRiskFloor = 70

// TicketService is the lifecycle controller: it exclusively owns ticket
// mutation. The SLA and triage engines only return computed values; every
// write funnels through here, preserving the single-writer invariant.
type TicketService struct {
	tickets      repository.TicketRepository
	comments     repository.CommentRepository
	auditEvents  repository.EventRepository
	rules        repository.EscalationRuleRepository
	assignments  *AssignmentService
	summaries    *SummaryService
	slaEngine    *sla.Engine
	triageEngine *triage.Engine
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	reopenWindow time.Duration

	// now is the single clock source per operation; injectable for tests.
	now func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo         repository.TicketRepository
	CommentRepo        repository.CommentRepository
	EventRepo          repository.EventRepository
	EscalationRuleRepo repository.EscalationRuleRepository
	Assignments        *AssignmentService
	Summaries          *SummaryService
	SlaEngine          *sla.Engine
	TriageEngine       *triage.Engine
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	ReopenWindow       time.Duration
	Now                func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:      deps.TicketRepo,
		comments:     deps.CommentRepo,
		auditEvents:  deps.EventRepo,
		rules:        deps.EscalationRuleRepo,
		assignments:  deps.Assignments,
		summaries:    deps.Summaries,
		slaEngine:    deps.SlaEngine,
		triageEngine: deps.TriageEngine,
		dispatcher:   deps.Dispatcher,
		logger:       deps.Logger,
		reopenWindow: deps.ReopenWindow,
		now:          deps.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.reopenWindow <= 0 {
		svc.reopenWindow = 7 * 24 * time.Hour
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
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
	Priority      domain.TicketPriority
	Channel       domain.TicketChannel
	FormData      map[string]any
	Tags          []string
}

// TicketPatch describes partial ticket updates.
type TicketPatch struct {
	Status       *domain.TicketStatus
	Priority     *domain.TicketPriority
	AssigneeID   *string
	AssigneeName *string
	AssigneeTeam *string
	Tags         *[]string
}

// CommentInput describes a new thread comment.
type CommentInput struct {
	Author      domain.Actor
	Body        string
	IsInternal  bool
	Attachments []AttachmentInput
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// TriageOutcome bundles a classification with the predicted response time.
type TriageOutcome struct {
	triage.Result
	PredictedResponseMinutes int
}

// CreateTicket runs triage, computes the SLA horizon, routes the ticket,
// and persists it in status "new". Summary enrichment is scheduled
// fire-and-forget and never blocks creation.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.TenantID) == "" {
		return nil, apperrors.NewValidationError("tenant_id required", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if input.Priority != "" && !input.Priority.IsValid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	now := s.now()
	classified := s.triageEngine.Classify(input.Title, input.Description)

	category := classified.Category
	if strings.TrimSpace(input.Category) != "" {
		category = strings.TrimSpace(input.Category)
	}
	priority := classified.Priority
	if input.Priority != "" {
		priority = input.Priority
	}

	slaResult, err := s.slaEngine.Calculate(ctx, input.TenantID, input.FeatureID, priority, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}

	firstResponseDue := slaResult.FirstResponseDueAt
	due := slaResult.DueAt
	ticket := &domain.Ticket{
		ReferenceKey:       generateReferenceKey(),
		TenantID:           input.TenantID,
		EmployeeID:         input.EmployeeID,
		EmployeeName:       strings.TrimSpace(input.EmployeeName),
		EmployeeEmail:      strings.TrimSpace(input.EmployeeEmail),
		FeatureID:          input.FeatureID,
		FeatureName:        strings.TrimSpace(input.FeatureName),
		Category:           category,
		Subcategory:        strings.TrimSpace(input.Subcategory),
		Title:              strings.TrimSpace(input.Title),
		Description:        strings.TrimSpace(input.Description),
		Status:             domain.TicketStatusNew,
		Priority:           priority,
		Channel:            channel,
		FormData:           input.FormData,
		Tags:               mergeTags(classified.Tags, input.Tags),
		RiskScore:          classified.RiskScore,
		Sentiment:          classified.Sentiment,
		SlaPolicyID:        slaResult.PolicyID,
		FirstResponseDueAt: &firstResponseDue,
		DueAt:              &due,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	queue, err := s.assignments.ResolveQueue(ctx, ticket.TenantID, ticket.FeatureID, ticket.Category)
	if err != nil {
		return nil, err
	}
	if queue != nil {
		ticket.AssigneeTeam = queue.TeamName
		ticket.AssigneeID = queue.AssigneeID
		ticket.AssigneeName = queue.AssigneeName
	}

	firedRules, err := s.applyEscalationRules(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	actor := domain.Actor{ID: actorIDFromEmployee(input.EmployeeID), Role: domain.RoleEmployee}
	s.appendEvent(ctx, ticket, domain.EventTicketCreated, actor, now, nil, map[string]any{
		"status":     ticket.Status,
		"priority":   ticket.Priority,
		"category":   ticket.Category,
		"risk_score": ticket.RiskScore,
	})
	for _, ruleName := range firedRules {
		s.appendEvent(ctx, ticket, domain.EventEscalation, domain.Actor{ID: "rule-engine", Role: domain.RoleSystem}, now,
			nil, map[string]any{"rule": ruleName, "status": ticket.Status, "risk_score": ticket.RiskScore})
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			ReferenceKey: ticket.ReferenceKey,
			Category:     ticket.Category,
			Priority:     ticket.Priority,
			RiskScore:    ticket.RiskScore,
			Title:        ticket.Title,
			AssigneeTeam: ticket.AssigneeTeam,
		},
	})

	s.scheduleSummary(ticket.ID)
	return ticket, nil
}

// ListTickets returns tickets matching the filter.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetTicket fetches a ticket with its thread, scoped by tenant when supplied.
func (s *TicketService) GetTicket(ctx context.Context, tenantID *string, ticketID string) (*domain.Ticket, []domain.Comment, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, nil
}

// ListEvents returns the audit trail for a ticket.
func (s *TicketService) ListEvents(ctx context.Context, tenantID *string, ticketID string) ([]domain.TicketEvent, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	trail, err := s.auditEvents.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return trail, nil
}

// UpdateTicket applies a partial update. Each changed field appends its own
// audit event; status changes drive the SLA pause/resume side effects and
// priority changes recompute the SLA horizon from the ticket's creation time.
func (s *TicketService) UpdateTicket(ctx context.Context, tenantID *string, ticketID string, patch TicketPatch, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	type pendingEvent struct {
		eventType domain.TicketEventType
		oldValue  map[string]any
		newValue  map[string]any
	}
	var pending []pendingEvent
	var published []events.Event

	if patch.Status != nil && *patch.Status != ticket.Status {
		newStatus := *patch.Status
		if newStatus == domain.TicketStatusReopened {
			return nil, apperrors.NewPolicyViolation("use the reopen operation to reopen a ticket", nil)
		}
		if !isValidTransition(ticket.Status, newStatus) {
			return nil, apperrors.NewPolicyViolation("invalid status transition", map[string]any{
				"from": ticket.Status, "to": newStatus,
			})
		}
		oldStatus := ticket.Status
		s.applyStatusChange(ticket, newStatus, now)
		pending = append(pending, pendingEvent{
			eventType: domain.EventStatusChange,
			oldValue:  map[string]any{"status": oldStatus},
			newValue:  map[string]any{"status": newStatus},
		})
		published = append(published, events.Event{
			Type:     events.EventStatusChanged,
			TenantID: ticket.TenantID,
			TicketID: ticket.ID,
			Payload:  events.StatusChangedPayload{OldStatus: oldStatus, NewStatus: newStatus},
		})
	}

	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		if !patch.Priority.IsValid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *patch.Priority})
		}
		oldPriority := ticket.Priority
		ticket.Priority = *patch.Priority

		// The whole SLA horizon is replaced from the original creation
		// time, then the accumulated pause offset is re-applied.
		result, err := s.slaEngine.Calculate(ctx, ticket.TenantID, ticket.FeatureID, ticket.Priority, ticket.CreatedAt)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		sla.ShiftByPause(ticket, result)

		pending = append(pending, pendingEvent{
			eventType: domain.EventPriorityChange,
			oldValue:  map[string]any{"priority": oldPriority},
			newValue:  map[string]any{"priority": ticket.Priority, "due_at": ticket.DueAt},
		})
		published = append(published, events.Event{
			Type:     events.EventPriorityChanged,
			TenantID: ticket.TenantID,
			TicketID: ticket.ID,
			Payload:  events.PriorityChangedPayload{OldPriority: oldPriority, NewPriority: ticket.Priority, NewDueAt: ticket.DueAt},
		})
	}

	if patch.AssigneeID != nil || patch.AssigneeName != nil || patch.AssigneeTeam != nil {
		oldValue := map[string]any{"assignee_id": ticket.AssigneeID, "assignee_team": ticket.AssigneeTeam}
		changed := false
		if patch.AssigneeID != nil && !equalPtr(patch.AssigneeID, ticket.AssigneeID) {
			ticket.AssigneeID = patch.AssigneeID
			changed = true
		}
		if patch.AssigneeName != nil && *patch.AssigneeName != ticket.AssigneeName {
			ticket.AssigneeName = *patch.AssigneeName
			changed = true
		}
		if patch.AssigneeTeam != nil && *patch.AssigneeTeam != ticket.AssigneeTeam {
			ticket.AssigneeTeam = *patch.AssigneeTeam
			changed = true
		}
		if changed {
			pending = append(pending, pendingEvent{
				eventType: domain.EventAssignment,
				oldValue:  oldValue,
				newValue:  map[string]any{"assignee_id": ticket.AssigneeID, "assignee_team": ticket.AssigneeTeam},
			})
			published = append(published, events.Event{
				Type:     events.EventAssigned,
				TenantID: ticket.TenantID,
				TicketID: ticket.ID,
				Payload:  events.AssignedPayload{AssigneeID: ticket.AssigneeID, AssigneeTeam: ticket.AssigneeTeam},
			})
		}
	}

	if patch.Tags != nil && !equalTags(*patch.Tags, ticket.Tags) {
		oldTags := ticket.Tags
		ticket.Tags = *patch.Tags
		pending = append(pending, pendingEvent{
			eventType: domain.EventTagChange,
			oldValue:  map[string]any{"tags": oldTags},
			newValue:  map[string]any{"tags": ticket.Tags},
		})
	}

	if len(pending) == 0 {
		return ticket, nil
	}

	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, entry := range pending {
		s.appendEvent(ctx, ticket, entry.eventType, actor, now, entry.oldValue, entry.newValue)
	}
	for _, event := range published {
		event.Actor = events.Actor{ID: actor.ID, Role: actor.Role}
		s.publish(ctx, event)
	}

	s.logEscalationAdvice(ticket, now)
	return ticket, nil
}

// AddComment appends a comment; the first non-internal comment from a
// non-employee author stamps the ticket's first response.
func (s *TicketService) AddComment(ctx context.Context, tenantID *string, ticketID string, input CommentInput) (*domain.Comment, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   input.Author.ID,
		AuthorName: input.Author.Name,
		AuthorRole: input.Author.Role,
		Body:       strings.TrimSpace(input.Body),
		IsInternal: input.IsInternal,
		Sentiment:  s.triageEngine.Sentiment(input.Body),
		CreatedAt:  now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range input.Attachments {
		record := &domain.AttachmentReference{
			CommentID:  comment.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.comments.CreateAttachment(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		comment.Attachments = append(comment.Attachments, *record)
	}

	if input.Author.Role != domain.RoleEmployee && !input.IsInternal && ticket.FirstResponseAt == nil {
		ticket.FirstResponseAt = &now
		ticket.UpdatedAt = now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: input.Author.ID, Role: input.Author.Role},
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorRole:  comment.AuthorRole,
			IsInternal:  comment.IsInternal,
			Sentiment:   comment.Sentiment,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// Escalate forces the ticket into the escalated state and floors its risk
// score. An optional note is recorded as an internal comment.
func (s *TicketService) Escalate(ctx context.Context, tenantID *string, ticketID string, actor domain.Actor, note *string) error {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusClosed {
		return apperrors.NewPolicyViolation("closed tickets cannot be escalated", nil)
	}

	now := s.now()
	oldStatus := ticket.Status
	oldRisk := ticket.RiskScore
	ticket.Status = domain.TicketStatusEscalated
	if ticket.RiskScore < escalationRiskFloor {
		ticket.RiskScore = escalationRiskFloor
	}
	ticket.RiskScore = triage.ClampRisk(ticket.RiskScore)
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	s.appendEvent(ctx, ticket, domain.EventEscalation, actor, now,
		map[string]any{"status": oldStatus, "risk_score": oldRisk},
		map[string]any{"status": ticket.Status, "risk_score": ticket.RiskScore})

	if note != nil && strings.TrimSpace(*note) != "" {
		comment := &domain.Comment{
			TicketID:   ticket.ID,
			AuthorID:   actor.ID,
			AuthorName: actor.Name,
			AuthorRole: actor.Role,
			Body:       strings.TrimSpace(*note),
			IsInternal: true,
			Sentiment:  domain.SentimentNeutral,
			CreatedAt:  now,
		}
		if err := s.comments.Create(ctx, comment); err != nil {
			s.logger.Error("failed to record escalation note", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	payload := events.EscalatedPayload{RiskScore: ticket.RiskScore}
	if note != nil {
		payload.Note = *note
	}
	s.publish(ctx, events.Event{
		Type:     events.EventEscalated,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
		Payload:  payload,
	})
	return nil
}

// Reopen transitions a resolved or closed ticket back into the reopened
// state. Closed tickets may only be reopened within the reopen window
// measured from closed_at.
func (s *TicketService) Reopen(ctx context.Context, tenantID *string, ticketID string, actor domain.Actor, reason string) error {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusClosed {
		return apperrors.NewPolicyViolation("only resolved or closed tickets can be reopened", map[string]any{
			"status": ticket.Status,
		})
	}

	now := s.now()
	if ticket.ClosedAt != nil && now.After(ticket.ClosedAt.Add(s.reopenWindow)) {
		return apperrors.NewPolicyViolation("reopen window has passed", map[string]any{
			"closed_at": ticket.ClosedAt,
		})
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusReopened
	ticket.ReopenedAt = &now
	ticket.ResolvedAt = nil
	ticket.ClosedAt = nil
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}

	s.appendEvent(ctx, ticket, domain.EventReopen, actor, now,
		map[string]any{"status": oldStatus},
		map[string]any{"status": ticket.Status, "reason": reason})

	comment := &domain.Comment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		AuthorRole: actor.Role,
		Body:       "Ticket reopened: " + strings.TrimSpace(reason),
		Sentiment:  domain.SentimentNeutral,
		CreatedAt:  now,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		s.logger.Error("failed to record reopen comment", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:     events.EventReopened,
		TenantID: ticket.TenantID,
		TicketID: ticket.ID,
		Actor:    events.Actor{ID: actor.ID, Role: actor.Role},
		Payload:  events.ReopenedPayload{Reason: reason},
	})
	return nil
}

// GetSlaStatus reports the ticket's SLA standing at the current time.
func (s *TicketService) GetSlaStatus(ctx context.Context, tenantID *string, ticketID string) (sla.StatusSnapshot, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return sla.StatusSnapshot{}, err
	}
	return sla.Status(ticket, s.now()), nil
}

// PauseSla stops the SLA clock outside a status change, e.g. from a
// scheduler. No-op if the clock is already paused.
func (s *TicketService) PauseSla(ctx context.Context, tenantID *string, ticketID string, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !sla.ApplyPause(ticket, now) {
		return ticket, nil
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.appendEvent(ctx, ticket, domain.EventSlaPause, actor, now, nil, map[string]any{"sla_paused_at": now})
	return ticket, nil
}

// ResumeSla restarts the SLA clock. No-op if the clock is not paused.
func (s *TicketService) ResumeSla(ctx context.Context, tenantID *string, ticketID string, actor domain.Actor) (*domain.Ticket, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	pausedMinutes, changed := sla.ApplyResume(ticket, now)
	if !changed {
		return ticket, nil
	}
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.appendEvent(ctx, ticket, domain.EventSlaResume, actor, now, nil, map[string]any{
		"paused_minutes":      pausedMinutes,
		"total_pause_minutes": ticket.SlaPauseMinutes,
	})
	return ticket, nil
}

// SweepSlaBreaches marks overdue running tickets as breached and raises
// their risk score. Idempotent: already-breached tickets are never
// re-flagged or re-penalized.
func (s *TicketService) SweepSlaBreaches(ctx context.Context, tenantID *string) (int, error) {
	now := s.now()
	candidates, err := s.tickets.ListBreachCandidates(ctx, tenantID, now)
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	count := 0
	for i := range candidates {
		ticket := &candidates[i]
		ticket.SlaBreached = true
		if ticket.RiskScore < breachRiskFloor {
			ticket.RiskScore = breachRiskFloor
		}
		ticket.UpdatedAt = now
		if err := s.tickets.Update(ctx, ticket); err != nil {
			s.logger.Error("failed to mark sla breach", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		count++
		s.appendEvent(ctx, ticket, domain.EventSlaBreach, domain.Actor{ID: "sla-sweep", Role: domain.RoleSystem}, now,
			map[string]any{"sla_breached": false},
			map[string]any{"sla_breached": true, "risk_score": ticket.RiskScore})
		s.publish(ctx, events.Event{
			Type:     events.EventSlaBreached,
			TenantID: ticket.TenantID,
			TicketID: ticket.ID,
			Actor:    events.Actor{ID: "sla-sweep", Role: domain.RoleSystem},
			Payload:  events.SlaBreachedPayload{DueAt: ticket.DueAt, RiskScore: ticket.RiskScore},
		})
	}
	return count, nil
}

// ShouldEscalate evaluates the escalation heuristics for a ticket.
func (s *TicketService) ShouldEscalate(ctx context.Context, tenantID *string, ticketID string) (escalation.Evaluation, error) {
	ticket, err := s.fetchScoped(ctx, tenantID, ticketID)
	if err != nil {
		return escalation.Evaluation{}, err
	}
	now := s.now()
	return escalation.Evaluate(ticket, sla.Status(ticket, now), now), nil
}

// Triage classifies text without creating a ticket, for admin tooling.
func (s *TicketService) Triage(ctx context.Context, tenantID, title, description, category string) (TriageOutcome, error) {
	result := s.triageEngine.Classify(title, description)
	if strings.TrimSpace(category) != "" {
		result.Category = strings.TrimSpace(category)
	}
	predicted, err := s.triageEngine.PredictResponseMinutes(ctx, tenantID, result.Category, result.Priority)
	if err != nil {
		return TriageOutcome{}, apperrors.MapError(err)
	}
	return TriageOutcome{Result: result, PredictedResponseMinutes: predicted}, nil
}

// FindDuplicates flags likely duplicate open tickets for an employee.
func (s *TicketService) FindDuplicates(ctx context.Context, tenantID, employeeID, title string) ([]string, error) {
	duplicates, err := s.triageEngine.FindDuplicates(ctx, tenantID, employeeID, title)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return duplicates, nil
}

func (s *TicketService) fetchScoped(ctx context.Context, tenantID *string, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if tenantID != nil && ticket.TenantID != *tenantID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// applyStatusChange mutates the ticket for a validated transition,
// handling the awaiting_customer pause/resume side effects. Only
// awaiting_customer pauses the clock; awaiting_internal delays still count
// against the team.
func (s *TicketService) applyStatusChange(ticket *domain.Ticket, newStatus domain.TicketStatus, now time.Time) {
	if ticket.Status == domain.TicketStatusAwaitingCustomer && ticket.SlaPausedAt != nil {
		sla.ApplyResume(ticket, now)
	}
	ticket.Status = newStatus
	switch newStatus {
	case domain.TicketStatusAwaitingCustomer:
		sla.ApplyPause(ticket, now)
	case domain.TicketStatusResolved:
		resolved := now
		ticket.ResolvedAt = &resolved
	case domain.TicketStatusClosed:
		closed := now
		ticket.ClosedAt = &closed
	}
}

func (s *TicketService) applyEscalationRules(ctx context.Context, ticket *domain.Ticket) ([]string, error) {
	if s.rules == nil {
		return nil, nil
	}
	rules, err := s.rules.ListActive(ctx, ticket.TenantID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	var fired []string
	for _, rule := range rules {
		if !ruleMatches(rule, ticket) {
			continue
		}
		switch rule.ActionType {
		case domain.ActionEscalate:
			ticket.Status = domain.TicketStatusEscalated
			if ticket.RiskScore < escalationRiskFloor {
				ticket.RiskScore = escalationRiskFloor
			}
			ticket.RiskScore = triage.ClampRisk(ticket.RiskScore)
		case domain.ActionAssignTeam:
			ticket.AssigneeTeam = rule.ActionValue
		case domain.ActionAddTag:
			if !ticket.HasTag(rule.ActionValue) {
				ticket.Tags = append(ticket.Tags, rule.ActionValue)
			}
		default:
			continue
		}
		fired = append(fired, rule.Name)
	}
	return fired, nil
}

func ruleMatches(rule domain.EscalationRule, ticket *domain.Ticket) bool {
	switch rule.ConditionType {
	case domain.ConditionPriorityAtLeast:
		return priorityRank(ticket.Priority) >= priorityRank(domain.TicketPriority(rule.ConditionValue))
	case domain.ConditionRiskAbove:
		threshold, err := strconv.Atoi(rule.ConditionValue)
		return err == nil && ticket.RiskScore > threshold
	case domain.ConditionSentimentIs:
		return string(ticket.Sentiment) == rule.ConditionValue
	case domain.ConditionCategoryIs:
		return ticket.Category == rule.ConditionValue
	default:
		return false
	}
}

func priorityRank(priority domain.TicketPriority) int {
	switch priority {
	case domain.TicketPriorityCritical:
		return 4
	case domain.TicketPriorityHigh:
		return 3
	case domain.TicketPriorityMedium:
		return 2
	case domain.TicketPriorityLow:
		return 1
	default:
		return 0
	}
}

// appendEvent records an audit entry. The primary mutation stays
// authoritative: an append failure is logged, never rolled back.
func (s *TicketService) appendEvent(ctx context.Context, ticket *domain.Ticket, eventType domain.TicketEventType, actor domain.Actor, now time.Time, oldValue, newValue map[string]any) {
	if s.auditEvents == nil {
		return
	}
	entry := &domain.TicketEvent{
		TicketID:  ticket.ID,
		TenantID:  ticket.TenantID,
		EventType: eventType,
		OldValue:  oldValue,
		NewValue:  newValue,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		CreatedAt: now,
	}
	if err := s.auditEvents.Create(ctx, entry); err != nil {
		s.logger.Error("failed to append audit event",
			zap.String("ticket_id", ticket.ID),
			zap.String("event_type", string(eventType)),
			zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) scheduleSummary(ticketID string) {
	if s.summaries == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("summary enqueue panicked", zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.summaries.Enqueue(ctx, ticketID); err != nil {
			s.logger.Warn("summary enqueue failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
	}()
}

func (s *TicketService) logEscalationAdvice(ticket *domain.Ticket, now time.Time) {
	evaluation := escalation.Evaluate(ticket, sla.Status(ticket, now), now)
	if !evaluation.ShouldEscalate || ticket.Status == domain.TicketStatusEscalated {
		return
	}
	reasons := make([]string, 0, len(evaluation.Reasons))
	for _, reason := range evaluation.Reasons {
		reasons = append(reasons, string(reason))
	}
	s.logger.Warn("escalation recommended",
		zap.String("ticket_id", ticket.ID),
		zap.Strings("reasons", reasons))
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusNew: {
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer,
		domain.TicketStatusAwaitingInternal, domain.TicketStatusEscalated, domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusOpen: {
		domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer, domain.TicketStatusAwaitingInternal,
		domain.TicketStatusEscalated, domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusOpen, domain.TicketStatusAwaitingCustomer, domain.TicketStatusAwaitingInternal,
		domain.TicketStatusEscalated, domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusAwaitingCustomer: {
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusAwaitingInternal,
		domain.TicketStatusEscalated, domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusAwaitingInternal: {
		domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer,
		domain.TicketStatusEscalated, domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusEscalated: {
		domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer, domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	},
	domain.TicketStatusResolved: {domain.TicketStatusClosed},
	domain.TicketStatusClosed:   {},
	domain.TicketStatusReopened: {
		domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer, domain.TicketStatusAwaitingInternal,
		domain.TicketStatusEscalated, domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func generateReferenceKey() string {
	return "BEN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func actorIDFromEmployee(employeeID *string) string {
	if employeeID != nil {
		return *employeeID
	}
	return "anonymous"
}

func mergeTags(suggested, provided []string) []string {
	merged := make([]string, 0, len(suggested)+len(provided))
	seen := map[string]struct{}{}
	for _, tag := range append(append([]string{}, suggested...), provided...) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}
	return merged
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
