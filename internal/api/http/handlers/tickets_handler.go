package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketsHandler exposes ticket lifecycle endpoints. Visibility is
// scoped server side to the caller's owned subtree.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), req.ToInput(), principal.AccountID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"), principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input, err := parseListQuery(c)
	if err != nil {
		return err
	}

	page, err := h.tickets.ListTickets(c.UserContext(), principal.AccountID, input)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewTicketPageResponse(page)})
}

// Update handles PATCH /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), req.ToInput(), principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Close handles POST /tickets/:id/close. Resolution notes are
// mandatory.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CloseTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	solved := domain.TicketStatusSolved
	input := service.TicketUpdateInput{Status: &solved, Notes: &req.Notes}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), input, principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Reopen handles POST /tickets/:id/reopen.
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	pending := domain.TicketStatusPending
	input := service.TicketUpdateInput{Status: &pending}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), input, principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddAttachments handles POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.AddAttachmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	inputs := make([]service.AttachmentInput, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		inputs = append(inputs, service.AttachmentInput{Name: a.Name, URL: a.URL, FileType: a.FileType})
	}

	attachments, err := h.tickets.AddAttachments(c.UserContext(), c.Params("id"), inputs, principal.AccountID)
	if err != nil {
		return err
	}

	responses := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		responses = append(responses, dto.NewAttachmentResponse(&attachments[i]))
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": responses})
}

func parseListQuery(c *fiber.Ctx) (service.TicketListInput, error) {
	input := service.TicketListInput{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", 0),
	}

	if raw := c.Query("status"); raw != "" {
		status := domain.TicketStatus(raw)
		if !status.Valid() {
			return input, apperrors.NewValidationError("unknown status filter", map[string]any{"status": raw})
		}
		input.Status = &status
	}
	if raw := c.Query("search"); raw != "" {
		input.Search = &raw
	}

	from, err := parseQueryDate(c.Query("from"))
	if err != nil {
		return input, err
	}
	input.CreatedFrom = from

	to, err := parseQueryDate(c.Query("to"))
	if err != nil {
		return input, err
	}
	input.CreatedTo = to

	return input, nil
}

func parseQueryDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts, nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date filter", map[string]any{"value": raw})
	}
	return &ts, nil
}
