package domain

import "testing"

func TestFlagThreshold(t *testing.T) {
	tests := []struct {
		ticketType TicketType
		want       int
		dual       bool
	}{
		{TicketTypeBal, 2, false},
		{TicketTypeAfter, 2, false},
		{TicketTypeAfterVIP, 2, false},
		{TicketTypeBalAndAfter, 3, true},
		{TicketTypeBalAndAfterVIP, 3, true},
	}
	for _, tt := range tests {
		if got := FlagThreshold(tt.ticketType); got != tt.want {
			t.Errorf("FlagThreshold(%q) = %d, want %d", tt.ticketType, got, tt.want)
		}
		if got := IsDualAccess(tt.ticketType); got != tt.dual {
			t.Errorf("IsDualAccess(%q) = %v, want %v", tt.ticketType, got, tt.dual)
		}
	}
}

func TestTicketTypeValid(t *testing.T) {
	for _, tt := range TicketTypes {
		if !tt.Valid() {
			t.Errorf("%q should be valid", tt)
		}
	}
	if TicketType("VIP").Valid() {
		t.Error("unknown type reported valid")
	}
}

func TestTicketClone(t *testing.T) {
	orig := &Ticket{ID: "t1", History: []VerificationEntry{{Verified: true}}}
	cp := orig.Clone()
	cp.History = append(cp.History, VerificationEntry{Verified: true})
	cp.History[0].Verified = false
	if len(orig.History) != 1 || !orig.History[0].Verified {
		t.Fatal("clone shares history with original")
	}
}
