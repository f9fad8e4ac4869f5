package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/benefits-desk/internal/api/dto"
	"github.com/spec-kit/benefits-desk/internal/auth"
	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/repository"
	"github.com/spec-kit/benefits-desk/internal/service"
	"github.com/spec-kit/benefits-desk/internal/sla"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

// TicketsHandler serves the ticket lifecycle endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CreateTicketInput{
		TenantID:      principal.TenantID,
		EmployeeID:    req.EmployeeID,
		EmployeeName:  req.EmployeeName,
		EmployeeEmail: req.EmployeeEmail,
		FeatureID:     req.FeatureID,
		FeatureName:   req.FeatureName,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Channel:       req.Channel,
		FormData:      req.FormData,
		Tags:          req.Tags,
	}
	if principal.Role == domain.RoleEmployee {
		input.EmployeeID = &principal.SubjectID
		if input.EmployeeName == "" {
			input.EmployeeName = principal.Name
		}
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	tenant := principal.TenantID
	filter.TenantID = &tenant
	if principal.Role == domain.RoleEmployee {
		subject := principal.SubjectID
		filter.EmployeeID = &subject
	}

	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, comments, err := h.service.GetTicket(c.UserContext(), &principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	if principal.Role == domain.RoleEmployee {
		comments = visibleComments(comments)
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// ListEvents GET /tickets/:id/events.
func (h *TicketsHandler) ListEvents(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	trail, err := h.service.ListEvents(c.UserContext(), &principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EventResponse, 0, len(trail))
	for i := range trail {
		items = append(items, eventResponse(&trail[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := service.TicketPatch{
		Status:       req.Status,
		Priority:     req.Priority,
		AssigneeID:   req.AssigneeID,
		AssigneeName: req.AssigneeName,
		AssigneeTeam: req.AssigneeTeam,
		Tags:         req.Tags,
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), &principal.TenantID, c.Params("id"), patch, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.IsInternal && principal.Role == domain.RoleEmployee {
		return apperrors.NewForbidden("employees cannot post internal notes")
	}

	attachments := make([]service.AttachmentInput, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, service.AttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}

	comment, err := h.service.AddComment(c.UserContext(), &principal.TenantID, c.Params("id"), service.CommentInput{
		Author:      principal.Actor(),
		Body:        req.Body,
		IsInternal:  req.IsInternal,
		Attachments: attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Escalate POST /tickets/:id/escalate.
func (h *TicketsHandler) Escalate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.Escalate(c.UserContext(), &principal.TenantID, c.Params("id"), principal.Actor(), req.Note); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Reopen POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ReopenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason required", nil)
	}
	if err := h.service.Reopen(c.UserContext(), &principal.TenantID, c.Params("id"), principal.Actor(), req.Reason); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetSlaStatus GET /tickets/:id/sla.
func (h *TicketsHandler) GetSlaStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	snapshot, err := h.service.GetSlaStatus(c.UserContext(), &principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaStatusResponse(snapshot)})
}

// PauseSla POST /tickets/:id/sla/pause.
func (h *TicketsHandler) PauseSla(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.PauseSla(c.UserContext(), &principal.TenantID, c.Params("id"), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ResumeSla POST /tickets/:id/sla/resume.
func (h *TicketsHandler) ResumeSla(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.ResumeSla(c.UserContext(), &principal.TenantID, c.Params("id"), principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// EscalationAdvice GET /tickets/:id/escalation.
func (h *TicketsHandler) EscalationAdvice(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	evaluation, err := h.service.ShouldEscalate(c.UserContext(), &principal.TenantID, c.Params("id"))
	if err != nil {
		return err
	}
	reasons := make([]string, 0, len(evaluation.Reasons))
	for _, reason := range evaluation.Reasons {
		reasons = append(reasons, string(reason))
	}
	return c.JSON(fiber.Map{"data": dto.EscalationAdviceResponse{
		ShouldEscalate: evaluation.ShouldEscalate,
		Reasons:        reasons,
	}})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if featureID := c.Query("feature_id"); featureID != "" {
		filter.FeatureID = &featureID
	}
	if assigneeID := c.Query("assignee_id"); assigneeID != "" {
		filter.AssigneeID = &assigneeID
	}
	if search := c.Query("q"); search != "" {
		filter.SearchTerm = &search
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func visibleComments(comments []domain.Comment) []domain.Comment {
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.IsInternal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		ReferenceKey: ticket.ReferenceKey,
		TenantID:     ticket.TenantID,
		Category:     ticket.Category,
		Title:        ticket.Title,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		RiskScore:    ticket.RiskScore,
		Sentiment:    ticket.Sentiment,
		Tags:         ticket.Tags,
		AssigneeTeam: ticket.AssigneeTeam,
		SlaBreached:  ticket.SlaBreached,
		DueAt:        ticket.DueAt,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.Comment) dto.TicketDetailResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return dto.TicketDetailResponse{
		TicketSummary:      ticketSummary(ticket),
		EmployeeID:         ticket.EmployeeID,
		EmployeeName:       ticket.EmployeeName,
		FeatureID:          ticket.FeatureID,
		FeatureName:        ticket.FeatureName,
		Subcategory:        ticket.Subcategory,
		Description:        ticket.Description,
		Channel:            ticket.Channel,
		FormData:           ticket.FormData,
		Summary:            ticket.Summary,
		SlaPolicyID:        ticket.SlaPolicyID,
		FirstResponseDueAt: ticket.FirstResponseDueAt,
		FirstResponseAt:    ticket.FirstResponseAt,
		SlaPausedAt:        ticket.SlaPausedAt,
		SlaPauseMinutes:    ticket.SlaPauseMinutes,
		AssigneeID:         ticket.AssigneeID,
		AssigneeName:       ticket.AssigneeName,
		ResolvedAt:         ticket.ResolvedAt,
		ClosedAt:           ticket.ClosedAt,
		ReopenedAt:         ticket.ReopenedAt,
		Comments:           items,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(comment.Attachments))
	for _, att := range comment.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
		})
	}
	return dto.CommentResponse{
		ID:          comment.ID,
		AuthorID:    comment.AuthorID,
		AuthorName:  comment.AuthorName,
		AuthorRole:  comment.AuthorRole,
		Body:        comment.Body,
		IsInternal:  comment.IsInternal,
		Sentiment:   comment.Sentiment,
		Attachments: attachments,
		CreatedAt:   comment.CreatedAt,
	}
}

func eventResponse(event *domain.TicketEvent) dto.EventResponse {
	return dto.EventResponse{
		ID:        event.ID,
		EventType: event.EventType,
		OldValue:  event.OldValue,
		NewValue:  event.NewValue,
		ActorID:   event.ActorID,
		ActorRole: event.ActorRole,
		CreatedAt: event.CreatedAt,
	}
}

func slaStatusResponse(snapshot sla.StatusSnapshot) dto.SlaStatusResponse {
	return dto.SlaStatusResponse{
		TicketID:                      snapshot.TicketID,
		PolicyID:                      snapshot.PolicyID,
		Paused:                        snapshot.Paused,
		EffectivePauseMinutes:         snapshot.EffectivePauseMinutes,
		FirstResponseDueAt:            snapshot.FirstResponseDueAt,
		FirstResponseAt:               snapshot.FirstResponseAt,
		FirstResponseBreached:         snapshot.FirstResponseBreached,
		FirstResponseRemainingMinutes: snapshot.FirstResponseRemainingMinutes,
		DueAt:                         snapshot.DueAt,
		ResolvedAt:                    snapshot.ResolvedAt,
		ResolutionBreached:            snapshot.ResolutionBreached,
		ResolutionRemainingMinutes:    snapshot.ResolutionRemainingMinutes,
	}
}
