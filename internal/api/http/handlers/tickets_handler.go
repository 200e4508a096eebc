package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-tickets/internal/api/dto"
	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/service"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// TicketsHandler manages organizer ticket endpoints.
type TicketsHandler struct {
	service       *service.TicketService
	notifications *service.NotificationService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, notifications *service.NotificationService) *TicketsHandler {
	return &TicketsHandler{service: ticketService, notifications: notifications}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.HolderName == "" || req.HolderPhone == "" || req.TicketType == "" {
		return apperrors.NewValidationError("holder_name, holder_phone, ticket_type required", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), scope, service.TicketCreateInput{
		HolderName:  req.HolderName,
		HolderPhone: req.HolderPhone,
		Type:        req.TicketType,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ChangeType PATCH /api/tickets/:id/type.
func (h *TicketsHandler) ChangeType(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.ChangeTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeType(c.UserContext(), scope, c.Params("id"), req.TicketType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// MarkSent PATCH /api/tickets/:id/sent.
func (h *TicketsHandler) MarkSent(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.SentRequest
	if err := c.BodyParser(&req); err != nil || req.Sent == nil {
		return apperrors.NewValidationError("sent flag required", nil)
	}
	ticket, err := h.service.MarkSent(c.UserContext(), scope, c.Params("id"), *req.Sent)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SetActive PATCH /api/tickets/:id/active.
func (h *TicketsHandler) SetActive(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.ActiveRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return apperrors.NewValidationError("active flag required", nil)
	}
	ticket, err := h.service.SetActive(c.UserContext(), scope, c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), scope, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Deliveries GET /api/tickets/:id/deliveries.
func (h *TicketsHandler) Deliveries(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	records, err := h.notifications.Deliveries(c.UserContext(), scope, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": records})
}

func scopeFrom(c *fiber.Ctx) (service.Scope, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Scope{}, apperrors.NewUnauthorized("organizer required")
	}
	return service.Scope{OrganizerID: principal.OrganizerID, Group: principal.Group}, nil
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	history := make([]dto.VerificationEntryResponse, 0, len(ticket.History))
	for _, entry := range ticket.History {
		history = append(history, dto.VerificationEntryResponse{Timestamp: entry.Timestamp, Verified: entry.Verified})
	}
	return dto.TicketResponse{
		ID:                  ticket.ID,
		Group:               ticket.Group,
		HolderName:          ticket.HolderName,
		HolderPhone:         ticket.HolderPhone,
		TicketType:          ticket.Type,
		QRPayload:           ticket.QRPayload,
		Verified:            ticket.Verified,
		VerificationCount:   ticket.VerificationCount,
		VerificationHistory: history,
		Flagged:             ticket.Flagged,
		Sent:                ticket.Sent,
		SentAt:              ticket.SentAt,
		Active:              ticket.Active,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
