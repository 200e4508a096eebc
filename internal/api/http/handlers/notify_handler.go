package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-tickets/internal/api/dto"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/service"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// NotifyHandler exposes ticket delivery endpoints.
type NotifyHandler struct {
	notifications *service.NotificationService
}

// NewNotifyHandler constructs handler.
func NewNotifyHandler(notifications *service.NotificationService) *NotifyHandler {
	return &NotifyHandler{notifications: notifications}
}

// Send POST /api/notify/send.
func (h *NotifyHandler) Send(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	outcome, err := h.notifications.Send(c.UserContext(), scope, notificationRequest(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": outcome})
}

// SendBulk POST /api/notify/bulk. Per-item failures are reported in the
// results, not as a request error.
func (h *NotifyHandler) SendBulk(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.BulkSendRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Items) == 0 {
		return apperrors.NewValidationError("items required", nil)
	}
	reqs := make([]service.NotificationRequest, 0, len(req.Items))
	for _, item := range req.Items {
		reqs = append(reqs, notificationRequest(item))
	}
	return c.JSON(fiber.Map{"data": h.notifications.SendBulk(c.UserContext(), scope, reqs)})
}

// Schedule POST /api/notify/schedule.
func (h *NotifyHandler) Schedule(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	var req dto.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SendAt == "" {
		return apperrors.NewValidationError("send_at required", nil)
	}
	job, err := h.notifications.Schedule(c.UserContext(), scope, notificationRequest(req.SendRequest), req.SendAt)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": jobResponse(job)})
}

// ListScheduled GET /api/notify/scheduled.
func (h *NotifyHandler) ListScheduled(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	jobs, err := h.notifications.ListScheduled(c.UserContext(), scope)
	if err != nil {
		return err
	}
	items := make([]dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, jobResponse(job))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CancelScheduled DELETE /api/notify/scheduled/:jobId.
func (h *NotifyHandler) CancelScheduled(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	if err := h.notifications.CancelScheduled(c.UserContext(), scope, c.Params("jobId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Status GET /api/notify/status.
func (h *NotifyHandler) Status(c *fiber.Ctx) error {
	scope, err := scopeFrom(c)
	if err != nil {
		return err
	}
	jobs, err := h.notifications.ListScheduled(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"channels":       h.notifications.ChannelStatus(),
		"scheduled_jobs": len(jobs),
	}})
}

func notificationRequest(req dto.SendRequest) service.NotificationRequest {
	return service.NotificationRequest{
		TicketID:  req.TicketID,
		Recipient: domain.Recipient{Phone: req.Phone, Email: req.Email},
		MediaRef:  req.MediaRef,
	}
}

func jobResponse(job domain.NotificationJob) dto.JobResponse {
	return dto.JobResponse{
		ID:        job.ID,
		TicketID:  job.Ticket.ID,
		Recipient: job.Recipient,
		FireAt:    job.FireAt,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
	}
}
