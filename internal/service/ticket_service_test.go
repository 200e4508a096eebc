package service

import (
	"context"
	"testing"

	"github.com/spec-kit/event-tickets/internal/domain"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

func TestCreateTicketValidation(t *testing.T) {
	_, tickets, _, _ := newVerificationFixture(t)
	ctx := context.Background()

	cases := map[string]TicketCreateInput{
		"empty name":   {HolderPhone: "0712345678", Type: domain.TicketTypeBal},
		"bad phone":    {HolderName: "Ana", HolderPhone: "123", Type: domain.TicketTypeBal},
		"unknown type": {HolderName: "Ana", HolderPhone: "0712345678", Type: "VIP ONLY"},
	}
	for name, input := range cases {
		if _, err := tickets.CreateTicket(ctx, economic, input); !apperrors.Is(err, apperrors.CodeValidation) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

func TestTicketsAreScopedToGroup(t *testing.T) {
	_, tickets, _, _ := newVerificationFixture(t)
	ticket := issue(t, tickets, "0712345678", domain.TicketTypeBal)
	other := Scope{OrganizerID: "org-2", Group: "Bal Carabella"}
	ctx := context.Background()

	if _, err := tickets.GetTicket(ctx, other, ticket.ID); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("cross-group Get err = %v", err)
	}
	if err := tickets.DeleteTicket(ctx, other, ticket.ID); !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("cross-group Delete err = %v", err)
	}
	list, err := tickets.ListTickets(ctx, other)
	if err != nil || len(list) != 0 {
		t.Fatalf("cross-group List = %v, %v", list, err)
	}
	if list, _ := tickets.ListTickets(ctx, economic); len(list) != 1 {
		t.Fatalf("own List = %+v", list)
	}
}

func TestMarkSentIsIndependentOfVerification(t *testing.T) {
	verify, tickets, _, _ := newVerificationFixture(t)
	ticket := issue(t, tickets, "0712345678", domain.TicketTypeBal)
	ctx := context.Background()

	sent, err := tickets.MarkSent(ctx, economic, ticket.ID, true)
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if !sent.Sent || sent.SentAt == nil || sent.Verified {
		t.Fatalf("sent = %+v", sent)
	}
	if _, err := verify.VerifyByID(ctx, ticket.ID); err != nil {
		t.Fatalf("VerifyByID: %v", err)
	}
	unsent, err := tickets.MarkSent(ctx, economic, ticket.ID, false)
	if err != nil {
		t.Fatalf("MarkSent(false): %v", err)
	}
	if unsent.Sent || unsent.SentAt != nil || !unsent.Verified {
		t.Fatalf("unsent = %+v", unsent)
	}
}
