package service

import (
	"context"
	"testing"

	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

func newAuthFixture() (*AuthService, *auth.TokenManager) {
	cfg := config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 10,
		BcryptCost:            4,
		GroupCodes:            map[string]string{"BAL2025ECON": "Bal Economic"},
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	svc := NewAuthService(cfg, AuthDependencies{
		OrganizerRepo: repository.NewMemoryOrganizerRepository(),
		TokenManager:  tokens,
	})
	return svc, tokens
}

func TestRegisterAssignsGroupFromReferralCode(t *testing.T) {
	svc, tokens := newAuthFixture()
	res, err := svc.Register(context.Background(), "ana", "secret1", "BAL2025ECON")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Organizer.Group != "Bal Economic" || res.Organizer.PasswordHash == "secret1" {
		t.Fatalf("organizer = %+v", res.Organizer)
	}
	claims, err := tokens.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Group != "Bal Economic" || claims.OrganizerID() != res.Organizer.ID {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterRejections(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ana", "secret1", "WRONG"); !apperrors.Is(err, apperrors.CodeValidation) {
		t.Fatalf("bad code err = %v", err)
	}
	if _, err := svc.Register(ctx, "an", "secret1", "BAL2025ECON"); !apperrors.Is(err, apperrors.CodeValidation) {
		t.Fatalf("short username err = %v", err)
	}
	if _, err := svc.Register(ctx, "ana", "secret1", "BAL2025ECON"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "ANA", "secret2", "BAL2025ECON"); !apperrors.Is(err, apperrors.CodeConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()
	if _, err := svc.Register(ctx, "ana", "secret1", "BAL2025ECON"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(ctx, "ana", "secret1")
	if err != nil || res.Token == "" {
		t.Fatalf("Login = %+v, %v", res, err)
	}
	if _, err := svc.Login(ctx, "ana", "nope"); !apperrors.Is(err, apperrors.CodeUnauthorized) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, "bob", "secret1"); !apperrors.Is(err, apperrors.CodeUnauthorized) {
		t.Fatalf("unknown user err = %v", err)
	}
}
