package auth

import (
	"testing"

	"github.com/spec-kit/event-tickets/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, exp, err := tm.GenerateToken(&domain.Organizer{ID: "org-1", Username: "ana", Group: "Bal Economic"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if exp.IsZero() {
		t.Fatal("expiry not set")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.OrganizerID() != "org-1" || claims.Group != "Bal Economic" || claims.Username != "ana" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	token, _, _ := NewTokenManager("one", 5).GenerateToken(&domain.Organizer{ID: "o", Group: "g"})
	if _, err := NewTokenManager("two", 5).ParseToken(token); err == nil {
		t.Fatal("token signed with another secret was accepted")
	}
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if ComparePassword(hash, "hunter22") != nil || ComparePassword(hash, "wrong") == nil {
		t.Fatal("ComparePassword mismatch")
	}
	if ValidCredentials("ab", "longenough") || ValidCredentials("abc", "short") || !ValidCredentials("abc", "123456") {
		t.Fatal("ValidCredentials policy mismatch")
	}
}

func TestPrincipalCanAccess(t *testing.T) {
	p := &Principal{OrganizerID: "o", Group: "Bal Economic"}
	if !p.CanAccess("Bal Economic") || p.CanAccess("Bal Carabella") {
		t.Fatal("CanAccess mismatch")
	}
	var nilPrincipal *Principal
	if nilPrincipal.CanAccess("Bal Economic") {
		t.Fatal("nil principal granted access")
	}
}
