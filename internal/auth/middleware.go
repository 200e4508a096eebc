package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated organizer.
type Principal struct {
	OrganizerID string
	Username    string
	Group       string
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	organizers repository.OrganizerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, organizers repository.OrganizerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, organizers: organizers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	organizer, err := m.organizers.GetByID(c.UserContext(), claims.OrganizerID())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewUnauthorized("organizer not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{
		OrganizerID: organizer.ID,
		Username:    organizer.Username,
		Group:       organizer.Group,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
