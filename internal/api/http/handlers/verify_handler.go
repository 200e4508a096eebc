package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-tickets/internal/api/dto"
	"github.com/spec-kit/event-tickets/internal/service"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// VerifyHandler serves door scans.
type VerifyHandler struct {
	verification *service.VerificationService
}

// NewVerifyHandler constructs handler.
func NewVerifyHandler(verification *service.VerificationService) *VerifyHandler {
	return &VerifyHandler{verification: verification}
}

// Verify POST /api/verify. Accepts qr_data, phone or ticket_id, checked in
// that order.
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var (
		res service.VerificationResult
		err error
	)
	switch {
	case req.QRData != "":
		res, err = h.verification.VerifyByPayload(c.UserContext(), req.QRData)
	case req.Phone != "":
		res, err = h.verification.VerifyByPhone(c.UserContext(), req.Phone)
	case req.TicketID != "":
		res, err = h.verification.VerifyByID(c.UserContext(), req.TicketID)
	default:
		return apperrors.NewValidationError("one of qr_data, phone, ticket_id required", nil)
	}
	if err != nil {
		return err
	}

	resp := dto.VerifyResponse{
		Message:         res.Message,
		Warning:         res.Warning,
		FirstVerifiedAt: res.FirstVerifiedAt,
		RequiresChoice:  res.NeedsSelection(),
	}
	if res.Ticket != nil {
		t := ticketResponse(res.Ticket)
		resp.Ticket = &t
	}
	if res.NeedsSelection() {
		resp.Candidates = ticketResponses(res.Candidates)
	}
	return c.JSON(fiber.Map{"data": resp})
}
