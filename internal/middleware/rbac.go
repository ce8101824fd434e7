package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// RequireRole ensures that the authenticated user carries at least one of the allowed roles.
// Semester-scoped grants are checked later by the service layer; this is a coarse gate only.
func RequireRole(roles ...models.Role) fiber.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if hasAnyRole(UserRoles(c), allowed) {
			return c.Next()
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}

func hasAnyRole(held []models.Role, allowed map[models.Role]struct{}) bool {
	for _, role := range held {
		if _, ok := allowed[role]; ok {
			return true
		}
	}
	return false
}
