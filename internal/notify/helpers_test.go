package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spec-kit/event-tickets/internal/domain"
)

type fakeChannel struct {
	name       string
	configured bool
	err        error
	panicMsg   string
	calls      int
	mu         sync.Mutex
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }

func (f *fakeChannel) Send(_ context.Context, msg Message) (domain.DeliveryResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return domain.DeliveryResult{}, f.err
	}
	return domain.DeliveryResult{Channel: f.name, Success: true, ProviderMessageID: f.name + "-" + msg.TicketID}, nil
}

func (f *fakeChannel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sendCall struct {
	ticketID  string
	recipient domain.Recipient
}

// recordingSender fails for recipients listed in failFor.
type recordingSender struct {
	mu      sync.Mutex
	calls   []sendCall
	failFor map[string]error
	sent    chan sendCall
}

func newRecordingSender() *recordingSender {
	return &recordingSender{failFor: map[string]error{}, sent: make(chan sendCall, 16)}
}

func (r *recordingSender) Send(_ context.Context, ticket *domain.Ticket, recipient domain.Recipient, _ SendOptions) (domain.DispatchOutcome, error) {
	call := sendCall{ticketID: ticket.ID, recipient: recipient}
	r.mu.Lock()
	r.calls = append(r.calls, call)
	err := r.failFor[recipient.Phone]
	r.mu.Unlock()
	r.sent <- call
	if err != nil {
		return domain.DispatchOutcome{}, err
	}
	return domain.DispatchOutcome{
		TicketID:      ticket.ID,
		Attempts:      []domain.DeliveryResult{{Channel: ChannelLink, Success: true}},
		PrimaryMethod: ChannelLink,
	}, nil
}

func (r *recordingSender) Calls() []sendCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sendCall(nil), r.calls...)
}

var errProviderDown = errors.New("provider down")

func testTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		Group:       "Bal Economic",
		HolderName:  "Ana Pop",
		HolderPhone: "0712345678",
		Type:        domain.TicketTypeBal,
		QRPayload:   `{"id":"` + id + `"}`,
		Active:      true,
		CreatedAt:   time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
	}
}
