package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/event-tickets/internal/auth"
	"github.com/spec-kit/event-tickets/internal/config"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	Organizer *domain.Organizer
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates organizer registration and login flows.
type AuthService struct {
	organizers repository.OrganizerRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	groupCodes map[string]string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	OrganizerRepo repository.OrganizerRepository
	TokenManager  *auth.TokenManager
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.TokenManager
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes)
	}
	return &AuthService{
		organizers: deps.OrganizerRepo,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		groupCodes: cfg.GroupCodes,
	}
}

// Register creates an organizer in the group unlocked by referralCode.
func (s *AuthService) Register(ctx context.Context, username, password, referralCode string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	if !auth.ValidCredentials(username, password) {
		return AuthResult{}, apperrors.NewValidationError("username or password too short", map[string]any{
			"min_username_length": auth.MinUsernameLength,
			"min_password_length": auth.MinPasswordLength,
		})
	}
	group, ok := s.groupCodes[strings.TrimSpace(referralCode)]
	if !ok {
		return AuthResult{}, apperrors.NewValidationError("invalid referral code", nil)
	}

	if _, err := s.organizers.GetByUsername(ctx, username); err == nil {
		return AuthResult{}, apperrors.NewConflict("username already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	organizer := &domain.Organizer{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Group:        group,
	}
	if err := s.organizers.Create(ctx, organizer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, apperrors.NewConflict("username already registered", nil)
		}
		return AuthResult{}, err
	}
	return s.issue(organizer)
}

// Login authenticates an organizer by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	organizer, err := s.organizers.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return AuthResult{}, err
	}
	if err := auth.ComparePassword(organizer.PasswordHash, password); err != nil {
		return AuthResult{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.issue(organizer)
}

func (s *AuthService) issue(organizer *domain.Organizer) (AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(organizer)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Organizer: organizer, Token: token, ExpiresAt: exp}, nil
}
