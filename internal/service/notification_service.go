package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/notify"
	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// NotificationRequest addresses one ticket send.
type NotificationRequest struct {
	TicketID  string
	Recipient domain.Recipient
	MediaRef  string
}

// NotificationService resolves tickets within the caller's group and hands
// them to the dispatcher, bulk coordinator and scheduler.
type NotificationService struct {
	tickets    repository.TicketRepository
	deliveries repository.DeliveryLogRepository
	dispatcher *notify.Dispatcher
	bulk       *notify.BulkCoordinator
	scheduler  *notify.Scheduler
	logger     *zap.Logger
}

// NotificationDependencies bundles collaborators for notification service.
type NotificationDependencies struct {
	TicketRepo      repository.TicketRepository
	DeliveryLogRepo repository.DeliveryLogRepository
	Dispatcher      *notify.Dispatcher
	Bulk            *notify.BulkCoordinator
	Scheduler       *notify.Scheduler
	Logger          *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &NotificationService{
		tickets:    deps.TicketRepo,
		deliveries: deps.DeliveryLogRepo,
		dispatcher: deps.Dispatcher,
		bulk:       deps.Bulk,
		scheduler:  deps.Scheduler,
		logger:     deps.Logger,
	}
}

func (n *NotificationService) ticketInScope(ctx context.Context, scope Scope, id string) (*domain.Ticket, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("ticket id is required", nil)
	}
	ticket, err := n.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if ticket.Group != scope.Group {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

// Send dispatches one ticket now.
func (n *NotificationService) Send(ctx context.Context, scope Scope, req NotificationRequest) (domain.DispatchOutcome, error) {
	ticket, err := n.ticketInScope(ctx, scope, req.TicketID)
	if err != nil {
		return domain.DispatchOutcome{}, err
	}
	return n.dispatcher.Send(ctx, ticket, req.Recipient, notify.SendOptions{MediaRef: req.MediaRef})
}

// SendBulk dispatches many tickets sequentially. Unresolvable tickets are
// reported as failed in place; the result order matches reqs.
func (n *NotificationService) SendBulk(ctx context.Context, scope Scope, reqs []NotificationRequest) []notify.BulkResult {
	results := make([]notify.BulkResult, len(reqs))
	var (
		items   []notify.BulkItem
		indexes []int
	)
	for i, req := range reqs {
		ticket, err := n.ticketInScope(ctx, scope, req.TicketID)
		if err != nil {
			results[i] = notify.BulkResult{
				TicketID:  req.TicketID,
				Recipient: req.Recipient,
				Status:    notify.BulkStatusFailed,
				Error:     err.Error(),
			}
			continue
		}
		items = append(items, notify.BulkItem{Ticket: ticket, Recipient: req.Recipient, MediaRef: req.MediaRef})
		indexes = append(indexes, i)
	}

	for j, res := range n.bulk.SendBulk(ctx, items) {
		results[indexes[j]] = res
	}
	return results
}

// Schedule registers a deferred send for a ticket of the scope's group.
func (n *NotificationService) Schedule(ctx context.Context, scope Scope, req NotificationRequest, when string) (domain.NotificationJob, error) {
	ticket, err := n.ticketInScope(ctx, scope, req.TicketID)
	if err != nil {
		return domain.NotificationJob{}, err
	}
	return n.scheduler.Schedule(ctx, notify.ScheduleRequest{
		Ticket:    ticket,
		Recipient: req.Recipient,
		When:      when,
		MediaRef:  req.MediaRef,
	})
}

// ListScheduled returns the scope's pending jobs.
func (n *NotificationService) ListScheduled(ctx context.Context, scope Scope) ([]domain.NotificationJob, error) {
	jobs, err := n.scheduler.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NotificationJob, 0, len(jobs))
	for _, job := range jobs {
		if job.Ticket.Group == scope.Group {
			out = append(out, job)
		}
	}
	return out, nil
}

// CancelScheduled cancels a pending job of the scope's group.
func (n *NotificationService) CancelScheduled(ctx context.Context, scope Scope, jobID string) error {
	jobs, err := n.ListScheduled(ctx, scope)
	if err != nil {
		return err
	}
	owned := false
	for _, job := range jobs {
		if job.ID == jobID {
			owned = true
			break
		}
	}
	if !owned {
		return apperrors.NewNotFound("scheduled notification", map[string]any{"job_id": jobID})
	}
	cancelled, err := n.scheduler.Cancel(ctx, jobID)
	if err != nil {
		return err
	}
	if !cancelled {
		return apperrors.NewNotFound("scheduled notification", map[string]any{"job_id": jobID})
	}
	return nil
}

// ChannelStatus reports the configured delivery channels.
func (n *NotificationService) ChannelStatus() []notify.ChannelStatus {
	return n.dispatcher.Status()
}

// Deliveries returns the recorded delivery history of a ticket, newest first.
func (n *NotificationService) Deliveries(ctx context.Context, scope Scope, ticketID string) ([]repository.DeliveryRecord, error) {
	if _, err := n.ticketInScope(ctx, scope, ticketID); err != nil {
		return nil, err
	}
	if n.deliveries == nil {
		return nil, apperrors.NewNotReady("delivery log")
	}
	records, err := n.deliveries.List(ctx, ticketID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeout("delivery log read", err)
		}
		return nil, err
	}
	return records, nil
}
