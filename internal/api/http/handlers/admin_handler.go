package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/benefits-desk/internal/api/dto"
	"github.com/spec-kit/benefits-desk/internal/auth"
	"github.com/spec-kit/benefits-desk/internal/domain"
	"github.com/spec-kit/benefits-desk/internal/service"
	apperrors "github.com/spec-kit/benefits-desk/pkg/util"
)

// AdminHandler serves staff tooling: breach sweeps, triage previews, and
// duplicate checks.
type AdminHandler struct {
	service *service.TicketService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(ticketService *service.TicketService) *AdminHandler {
	return &AdminHandler{service: ticketService}
}

// SweepBreaches POST /sla/sweep.
func (h *AdminHandler) SweepBreaches(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.service.SweepSlaBreaches(c.UserContext(), &principal.TenantID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResponse{BreachedCount: count}})
}

// TriagePreview POST /triage/preview.
func (h *AdminHandler) TriagePreview(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TriagePreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}

	outcome, err := h.service.Triage(c.UserContext(), principal.TenantID, req.Title, req.Description, req.Category)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TriagePreviewResponse{
		Category:                 outcome.Category,
		Priority:                 outcome.Priority,
		Sentiment:                outcome.Sentiment,
		RiskScore:                outcome.RiskScore,
		Tags:                     outcome.Tags,
		PredictedResponseMinutes: outcome.PredictedResponseMinutes,
	}})
}

// CheckDuplicates GET /tickets/duplicates. Employees check their own open
// tickets; staff pass an explicit employee_id.
func (h *AdminHandler) CheckDuplicates(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	employeeID := c.Query("employee_id")
	if principal.Role == domain.RoleEmployee {
		employeeID = principal.SubjectID
	}
	title := c.Query("title")
	if strings.TrimSpace(employeeID) == "" || strings.TrimSpace(title) == "" {
		return apperrors.NewValidationError("employee_id and title required", nil)
	}

	duplicates, err := h.service.FindDuplicates(c.UserContext(), principal.TenantID, employeeID, title)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DuplicateCheckResponse{DuplicateTicketIDs: duplicates}})
}
