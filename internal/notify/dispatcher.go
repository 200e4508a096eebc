package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/events"
	"github.com/spec-kit/event-tickets/internal/observability"
	"github.com/spec-kit/event-tickets/internal/phone"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// SendOptions carries per-send extras.
type SendOptions struct {
	MediaRef string
}

// Sender is the single-send contract shared by the dispatcher, the bulk
// coordinator and the scheduler.
type Sender interface {
	Send(ctx context.Context, ticket *domain.Ticket, recipient domain.Recipient, opts SendOptions) (domain.DispatchOutcome, error)
}

// DispatcherDeps bundles the dispatcher collaborators.
type DispatcherDeps struct {
	Normalizer *phone.Normalizer
	Bus        events.Bus
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      clock.Clock
}

// ChannelStatus describes one known channel for operators.
type ChannelStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	InChain    bool   `json:"in_chain"`
	Ready      bool   `json:"ready"`
}

// Dispatcher walks a fixed chain of configured channels until one succeeds,
// then always records the link fallback as the last step.
type Dispatcher struct {
	known      []Channel
	chain      []Channel
	link       *LinkChannel
	normalizer *phone.Normalizer
	bus        events.Bus
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      clock.Clock
}

// NewDispatcher builds the chain once from channels ordered by priority.
// Unconfigured channels and unknown priority names are left out.
func NewDispatcher(channels []Channel, priority []string, deps DispatcherDeps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = phone.NewNormalizer("")
	}

	byName := make(map[string]Channel, len(channels))
	for _, ch := range channels {
		byName[ch.Name()] = ch
	}

	d := &Dispatcher{
		known:      channels,
		link:       NewLinkChannel(),
		normalizer: deps.Normalizer,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      deps.Clock,
	}

	seen := make(map[string]bool, len(priority))
	for _, name := range priority {
		name = strings.TrimSpace(name)
		if name == ChannelLink || seen[name] {
			continue
		}
		seen[name] = true
		ch, ok := byName[name]
		if !ok {
			d.logger.Warn("unknown channel in priority list", zap.String("channel", name))
			continue
		}
		if !ch.Configured() {
			d.logger.Info("channel disabled: missing credentials", zap.String("channel", name))
			continue
		}
		d.chain = append(d.chain, ch)
	}

	names := make([]string, 0, len(d.chain)+1)
	for _, ch := range d.chain {
		names = append(names, ch.Name())
	}
	names = append(names, ChannelLink)
	d.logger.Info("notification chain ready", zap.Strings("chain", names))
	return d
}

// Chain lists the channel names in attempt order, link included.
func (d *Dispatcher) Chain() []string {
	names := make([]string, 0, len(d.chain)+1)
	for _, ch := range d.chain {
		names = append(names, ch.Name())
	}
	return append(names, ChannelLink)
}

// Status reports every known channel.
func (d *Dispatcher) Status() []ChannelStatus {
	inChain := make(map[string]bool, len(d.chain))
	for _, ch := range d.chain {
		inChain[ch.Name()] = true
	}
	out := make([]ChannelStatus, 0, len(d.known)+1)
	for _, ch := range d.known {
		st := ChannelStatus{Name: ch.Name(), Configured: ch.Configured(), InChain: inChain[ch.Name()], Ready: ch.Configured()}
		if r, ok := ch.(readiness); ok {
			st.Ready = st.Configured && r.Ready()
		}
		out = append(out, st)
	}
	return append(out, ChannelStatus{Name: ChannelLink, Configured: true, InChain: true, Ready: true})
}

// Send delivers the ticket message. It fails only on caller-input errors;
// channel failures are recorded as attempts.
func (d *Dispatcher) Send(ctx context.Context, ticket *domain.Ticket, recipient domain.Recipient, opts SendOptions) (domain.DispatchOutcome, error) {
	if ticket == nil {
		return domain.DispatchOutcome{}, apperrors.NewValidationError("ticket is required", nil)
	}
	if strings.TrimSpace(recipient.Phone) == "" {
		recipient.Phone = ticket.HolderPhone
	}
	if strings.TrimSpace(recipient.Phone) == "" {
		return domain.DispatchOutcome{}, apperrors.NewValidationError("recipient phone is required", nil)
	}
	num, err := d.normalizer.Parse(recipient.Phone)
	if err != nil {
		return domain.DispatchOutcome{}, apperrors.NewValidationError("invalid recipient phone", map[string]any{"phone": recipient.Phone})
	}

	msg := Message{
		TicketID:  ticket.ID,
		Recipient: recipient,
		Phone:     num,
		Subject:   ticketSubject,
		Body:      FormatTicketBody(ticket),
		HTMLBody:  FormatTicketHTML(ticket),
		MediaRef:  opts.MediaRef,
	}

	outcome := domain.DispatchOutcome{TicketID: ticket.ID}
	for _, ch := range d.chain {
		if f, ok := ch.(recipientFilter); ok && !f.Accepts(recipient) {
			continue
		}
		result := d.attempt(ctx, ch, msg)
		outcome.Attempts = append(outcome.Attempts, result)
		if result.Success {
			outcome.PrimaryMethod = result.Channel
			break
		}
	}

	linkResult := d.attempt(ctx, d.link, msg)
	outcome.Attempts = append(outcome.Attempts, linkResult)
	if outcome.PrimaryMethod == "" {
		outcome.PrimaryMethod = ChannelLink
	}
	outcome.SentAt = d.clock.Now()

	d.logger.Info("ticket dispatched",
		zap.String("ticket_id", ticket.ID),
		zap.String("primary_method", outcome.PrimaryMethod),
		zap.Int("attempts", len(outcome.Attempts)))
	d.publish(ctx, ticket, outcome)
	return outcome, nil
}

func (d *Dispatcher) attempt(ctx context.Context, ch Channel, msg Message) (result domain.DeliveryResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("channel panicked", zap.String("channel", ch.Name()), zap.Any("panic", r))
			result = domain.DeliveryResult{Channel: ch.Name(), Error: fmt.Sprintf("panic: %v", r)}
		}
		d.metrics.RecordAttempt(result.Channel, result.Success)
	}()

	res, err := ch.Send(ctx, msg)
	if err != nil {
		d.logger.Warn("channel attempt failed",
			zap.String("channel", ch.Name()),
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
		return domain.DeliveryResult{Channel: ch.Name(), Error: err.Error()}
	}
	res.Channel = ch.Name()
	return res
}

func (d *Dispatcher) publish(ctx context.Context, ticket *domain.Ticket, outcome domain.DispatchOutcome) {
	if d.bus == nil {
		return
	}
	event := events.NewEvent(events.EventTicketDispatched, ticket.ID, ticket.Group, events.TicketDispatchedPayload{
		PrimaryMethod: outcome.PrimaryMethod,
		Succeeded:     outcome.Succeeded(),
		Attempts:      outcome.Attempts,
	})
	if err := d.bus.Publish(ctx, event); err != nil {
		d.logger.Warn("dispatch event handlers failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}
