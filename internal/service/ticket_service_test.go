package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/events"
	"github.com/spec-kit/benefits-desk/internal/repository"
	"github.com/spec-kit/benefits-desk/internal/sla"
	"github.com/spec-kit/benefits-desk/internal/triage"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

type memTicketRepo struct {
	mu      sync.Mutex
	seq     int
	tickets map[string]domain.Ticket
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (r *memTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("tkt-%d", r.seq)
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := ticket
	return &copied, nil
}

func (r *memTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.TenantID != nil && ticket.TenantID != *filter.TenantID {
			continue
		}
		if filter.EmployeeID != nil && (ticket.EmployeeID == nil || *ticket.EmployeeID != *filter.EmployeeID) {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *memTicketRepo) ListOpenByEmployee(ctx context.Context, tenantID, employeeID string, since time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID != tenantID || ticket.EmployeeID == nil || *ticket.EmployeeID != employeeID {
			continue
		}
		if ticket.Status.IsTerminal() || ticket.CreatedAt.Before(since) {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *memTicketRepo) ListRecentResolved(ctx context.Context, tenantID, category string, priority domain.TicketPriority, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.TenantID != tenantID || ticket.Category != category || ticket.Priority != priority {
			continue
		}
		if ticket.ResolvedAt == nil || len(out) >= limit {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

func (r *memTicketRepo) ListBreachCandidates(ctx context.Context, tenantID *string, now time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if tenantID != nil && ticket.TenantID != *tenantID {
			continue
		}
		if ticket.SlaBreached || ticket.SlaPausedAt != nil || ticket.Status.IsTerminal() {
			continue
		}
		if ticket.DueAt == nil || !ticket.DueAt.Before(now) {
			continue
		}
		out = append(out, ticket)
	}
	return out, nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[string][]domain.Comment
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{comments: map[string][]domain.Comment{}}
}

func (r *memCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("cmt-%d", r.seq)
	r.comments[comment.TicketID] = append(r.comments[comment.TicketID], *comment)
	return nil
}

func (r *memCommentRepo) CreateAttachment(ctx context.Context, att *domain.AttachmentReference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	att.ID = fmt.Sprintf("att-%d", r.seq)
	return nil
}

func (r *memCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Comment{}, r.comments[ticketID]...), nil
}

type memEventRepo struct {
	mu      sync.Mutex
	entries map[string][]domain.TicketEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{entries: map[string][]domain.TicketEvent{}}
}

func (r *memEventRepo) Create(ctx context.Context, event *domain.TicketEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[event.TicketID] = append(r.entries[event.TicketID], *event)
	return nil
}

func (r *memEventRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.TicketEvent{}, r.entries[ticketID]...), nil
}

func (r *memEventRepo) ofType(ticketID string, eventType domain.TicketEventType) []domain.TicketEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TicketEvent
	for _, entry := range r.entries[ticketID] {
		if entry.EventType == eventType {
			out = append(out, entry)
		}
	}
	return out
}

type memRuleRepo struct {
	rules []domain.EscalationRule
}

func (r *memRuleRepo) Create(ctx context.Context, rule *domain.EscalationRule) error {
	r.rules = append(r.rules, *rule)
	return nil
}

func (r *memRuleRepo) ListActive(ctx context.Context, tenantID string) ([]domain.EscalationRule, error) {
	return r.rules, nil
}

type memQueueRepo struct {
	rows []domain.QueueAssignment
}

func (r *memQueueRepo) Create(ctx context.Context, qa *domain.QueueAssignment) error {
	r.rows = append(r.rows, *qa)
	return nil
}

func (r *memQueueRepo) ListActive(ctx context.Context, tenantID string) ([]domain.QueueAssignment, error) {
	return r.rows, nil
}

type TicketServiceSuite struct {
	suite.Suite
	tickets  *memTicketRepo
	comments *memCommentRepo
	events   *memEventRepo
	now      time.Time
	svc      *TicketService
}

func TestTicketServiceSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceSuite))
}

func (s *TicketServiceSuite) SetupTest() {
	s.tickets = newMemTicketRepo()
	s.comments = newMemCommentRepo()
	s.events = newMemEventRepo()
	s.now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	category := "ecard"
	queues := &memQueueRepo{rows: []domain.QueueAssignment{
		{TenantID: "acme", Category: &category, TeamName: "benefits-core", Active: true},
	}}
	rules := &memRuleRepo{rules: []domain.EscalationRule{
		{TenantID: "acme", Name: "watch-risky", ConditionType: domain.ConditionRiskAbove, ConditionValue: "20", ActionType: domain.ActionAddTag, ActionValue: "watch", Active: true},
	}}

	s.svc = NewTicketService(TicketDependencies{
		TicketRepo:         s.tickets,
		CommentRepo:        s.comments,
		EventRepo:          s.events,
		EscalationRuleRepo: rules,
		Assignments:        NewAssignmentService(queues),
		SlaEngine:          sla.NewEngine(nil),
		TriageEngine:       triage.NewEngine(triage.DefaultRules(), s.tickets),
		Dispatcher:         events.NewInMemoryDispatcher(),
		ReopenWindow:       7 * 24 * time.Hour,
		Now:                func() time.Time { return s.now },
	})
}

func (s *TicketServiceSuite) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func (s *TicketServiceSuite) createTicket() *domain.Ticket {
	employeeID := "emp-1"
	ticket, err := s.svc.CreateTicket(context.Background(), CreateTicketInput{
		TenantID:    "acme",
		EmployeeID:  &employeeID,
		Title:       "Cannot access my e-card",
		Description: "the portal keeps rejecting my password",
	})
	s.Require().NoError(err)
	return ticket
}

func (s *TicketServiceSuite) domainErr(err error) *apperrors.DomainError {
	var domainErr *apperrors.DomainError
	s.Require().True(errors.As(err, &domainErr), "expected DomainError, got %v", err)
	return domainErr
}

func (s *TicketServiceSuite) TestCreateTicketRunsTriageSlaAndRouting() {
	ticket := s.createTicket()

	s.Equal(domain.TicketStatusNew, ticket.Status)
	s.Equal("ecard", ticket.Category)
	s.Equal(domain.TicketPriorityHigh, ticket.Priority)
	s.Equal(25, ticket.RiskScore)
	s.Contains(ticket.Tags, "ecard")
	s.Contains(ticket.Tags, "watch")
	s.Equal("benefits-core", ticket.AssigneeTeam)
	s.Contains(ticket.ReferenceKey, "BEN-")

	s.Require().NotNil(ticket.FirstResponseDueAt)
	s.Require().NotNil(ticket.DueAt)
	s.Equal(s.now.Add(60*time.Minute), *ticket.FirstResponseDueAt)
	s.Equal(s.now.Add(480*time.Minute), *ticket.DueAt)

	s.Len(s.events.ofType(ticket.ID, domain.EventTicketCreated), 1)
	s.Len(s.events.ofType(ticket.ID, domain.EventEscalation), 1)
}

func (s *TicketServiceSuite) TestCreateTicketRequiresTenant() {
	_, err := s.svc.CreateTicket(context.Background(), CreateTicketInput{Title: "no tenant"})
	s.Equal("VALIDATION_FAILED", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestCreateTicketCallerPriorityWins() {
	ticket, err := s.svc.CreateTicket(context.Background(), CreateTicketInput{
		TenantID: "acme",
		Title:    "Cannot access my e-card",
		Priority: domain.TicketPriorityLow,
	})
	s.Require().NoError(err)

	s.Equal(domain.TicketPriorityLow, ticket.Priority)
	s.Equal(s.now.Add(2880*time.Minute), *ticket.DueAt)
}

func (s *TicketServiceSuite) TestAwaitingCustomerPausesAndResumes() {
	ticket := s.createTicket()
	tenant := "acme"
	originalDue := *ticket.DueAt
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	awaiting := domain.TicketStatusAwaitingCustomer
	updated, err := s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Status: &awaiting}, actor)
	s.Require().NoError(err)
	s.Require().NotNil(updated.SlaPausedAt)

	s.advance(30 * time.Minute)

	inProgress := domain.TicketStatusInProgress
	updated, err = s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Status: &inProgress}, actor)
	s.Require().NoError(err)
	s.Nil(updated.SlaPausedAt)
	s.Equal(30, updated.SlaPauseMinutes)
	s.Equal(originalDue.Add(30*time.Minute), *updated.DueAt)
}

func (s *TicketServiceSuite) TestAwaitingInternalDoesNotPause() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	awaiting := domain.TicketStatusAwaitingInternal
	updated, err := s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Status: &awaiting}, actor)
	s.Require().NoError(err)
	s.Nil(updated.SlaPausedAt)
}

func (s *TicketServiceSuite) TestPriorityChangeRecomputesFromCreation() {
	ticket := s.createTicket()
	tenant := "acme"
	createdAt := ticket.CreatedAt
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	s.advance(2 * time.Hour)

	critical := domain.TicketPriorityCritical
	updated, err := s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Priority: &critical}, actor)
	s.Require().NoError(err)

	s.Equal(createdAt.Add(15*time.Minute), *updated.FirstResponseDueAt)
	s.Equal(createdAt.Add(120*time.Minute), *updated.DueAt)
	s.Len(s.events.ofType(ticket.ID, domain.EventPriorityChange), 1)
}

func (s *TicketServiceSuite) TestInvalidStatusTransitionRejected() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	resolved := domain.TicketStatusResolved
	_, err := s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Status: &resolved}, actor)
	s.Require().NoError(err)

	open := domain.TicketStatusOpen
	_, err = s.svc.UpdateTicket(context.Background(), &tenant, ticket.ID, TicketPatch{Status: &open}, actor)
	s.Equal("POLICY_VIOLATION", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestReopenWithinWindow() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	s.resolveAndClose(ticket.ID)

	s.advance(6 * 24 * time.Hour)
	err := s.svc.Reopen(context.Background(), &tenant, ticket.ID, actor, "issue came back")
	s.Require().NoError(err)

	stored, err := s.tickets.GetByID(context.Background(), ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusReopened, stored.Status)
	s.Nil(stored.ResolvedAt)
	s.Nil(stored.ClosedAt)
	s.Require().NotNil(stored.ReopenedAt)
	s.Equal(s.now, *stored.ReopenedAt)

	comments, err := s.comments.ListByTicket(context.Background(), ticket.ID)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)
	s.Contains(comments[0].Body, "issue came back")
	s.False(comments[0].IsInternal)
}

func (s *TicketServiceSuite) TestReopenOutsideWindowRejected() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	s.resolveAndClose(ticket.ID)

	s.advance(8 * 24 * time.Hour)
	err := s.svc.Reopen(context.Background(), &tenant, ticket.ID, actor, "too late")
	s.Equal("POLICY_VIOLATION", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestReopenRequiresTerminalStatus() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	err := s.svc.Reopen(context.Background(), &tenant, ticket.ID, actor, "still open")
	s.Equal("POLICY_VIOLATION", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestSweepIsIdempotent() {
	ticket := s.createTicket()
	tenant := "acme"

	s.advance(500 * time.Minute)
	count, err := s.svc.SweepSlaBreaches(context.Background(), &tenant)
	s.Require().NoError(err)
	s.Equal(1, count)

	stored, err := s.tickets.GetByID(context.Background(), ticket.ID)
	s.Require().NoError(err)
	s.True(stored.SlaBreached)
	s.GreaterOrEqual(stored.RiskScore, 70)
	s.Len(s.events.ofType(ticket.ID, domain.EventSlaBreach), 1)

	count, err = s.svc.SweepSlaBreaches(context.Background(), &tenant)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *TicketServiceSuite) TestFirstResponseStampedOnceByStaff() {
	ticket := s.createTicket()
	tenant := "acme"

	// An employee comment never stamps the first response.
	_, err := s.svc.AddComment(context.Background(), &tenant, ticket.ID, CommentInput{
		Author: domain.Actor{ID: "emp-1", Role: domain.RoleEmployee},
		Body:   "any update?",
	})
	s.Require().NoError(err)
	stored, _ := s.tickets.GetByID(context.Background(), ticket.ID)
	s.Nil(stored.FirstResponseAt)

	// Neither does an internal note.
	_, err = s.svc.AddComment(context.Background(), &tenant, ticket.ID, CommentInput{
		Author:     domain.Actor{ID: "agent-1", Role: domain.RoleAgent},
		Body:       "looking into it",
		IsInternal: true,
	})
	s.Require().NoError(err)
	stored, _ = s.tickets.GetByID(context.Background(), ticket.ID)
	s.Nil(stored.FirstResponseAt)

	firstReply := s.now
	_, err = s.svc.AddComment(context.Background(), &tenant, ticket.ID, CommentInput{
		Author: domain.Actor{ID: "agent-1", Role: domain.RoleAgent},
		Body:   "we are on it",
	})
	s.Require().NoError(err)
	stored, _ = s.tickets.GetByID(context.Background(), ticket.ID)
	s.Require().NotNil(stored.FirstResponseAt)
	s.Equal(firstReply, *stored.FirstResponseAt)

	s.advance(time.Hour)
	_, err = s.svc.AddComment(context.Background(), &tenant, ticket.ID, CommentInput{
		Author: domain.Actor{ID: "agent-2", Role: domain.RoleAgent},
		Body:   "following up",
	})
	s.Require().NoError(err)
	stored, _ = s.tickets.GetByID(context.Background(), ticket.ID)
	s.Equal(firstReply, *stored.FirstResponseAt)
}

func (s *TicketServiceSuite) TestEscalateFloorsRisk() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	note := "employee called twice"

	err := s.svc.Escalate(context.Background(), &tenant, ticket.ID, actor, &note)
	s.Require().NoError(err)

	stored, err := s.tickets.GetByID(context.Background(), ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusEscalated, stored.Status)
	s.Equal(80, stored.RiskScore)

	comments, err := s.comments.ListByTicket(context.Background(), ticket.ID)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)
	s.True(comments[0].IsInternal)
}

func (s *TicketServiceSuite) TestEscalateClosedTicketRejected() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}
	s.resolveAndClose(ticket.ID)

	err := s.svc.Escalate(context.Background(), &tenant, ticket.ID, actor, nil)
	s.Equal("POLICY_VIOLATION", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestTenantScopingHidesForeignTickets() {
	ticket := s.createTicket()
	other := "globex"

	_, _, err := s.svc.GetTicket(context.Background(), &other, ticket.ID)
	s.Equal("NOT_FOUND", s.domainErr(err).Code)
}

func (s *TicketServiceSuite) TestPauseAndResumeEndpointsAreIdempotent() {
	ticket := s.createTicket()
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	updated, err := s.svc.PauseSla(context.Background(), &tenant, ticket.ID, actor)
	s.Require().NoError(err)
	s.NotNil(updated.SlaPausedAt)
	s.Len(s.events.ofType(ticket.ID, domain.EventSlaPause), 1)

	_, err = s.svc.PauseSla(context.Background(), &tenant, ticket.ID, actor)
	s.Require().NoError(err)
	s.Len(s.events.ofType(ticket.ID, domain.EventSlaPause), 1)

	s.advance(15 * time.Minute)
	updated, err = s.svc.ResumeSla(context.Background(), &tenant, ticket.ID, actor)
	s.Require().NoError(err)
	s.Nil(updated.SlaPausedAt)
	s.Equal(15, updated.SlaPauseMinutes)
	s.Len(s.events.ofType(ticket.ID, domain.EventSlaResume), 1)

	_, err = s.svc.ResumeSla(context.Background(), &tenant, ticket.ID, actor)
	s.Require().NoError(err)
	s.Len(s.events.ofType(ticket.ID, domain.EventSlaResume), 1)
}

func (s *TicketServiceSuite) resolveAndClose(ticketID string) {
	tenant := "acme"
	actor := domain.Actor{ID: "agent-1", Role: domain.RoleAgent}

	resolved := domain.TicketStatusResolved
	_, err := s.svc.UpdateTicket(context.Background(), &tenant, ticketID, TicketPatch{Status: &resolved}, actor)
	s.Require().NoError(err)

	closed := domain.TicketStatusClosed
	_, err = s.svc.UpdateTicket(context.Background(), &tenant, ticketID, TicketPatch{Status: &closed}, actor)
	s.Require().NoError(err)
}
