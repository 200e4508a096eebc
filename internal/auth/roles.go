package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RequireOrganizer ensures an organizer with a group is authenticated.
func RequireOrganizer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.Group == "" {
			return fiber.NewError(http.StatusForbidden, "organizer group required")
		}
		return c.Next()
	}
}

// CanAccess reports whether the principal may act on records of group.
func (p *Principal) CanAccess(group string) bool {
	return p != nil && p.Group != "" && p.Group == group
}
