package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/thesis-go-api/internal/models"
	"github.com/noah-isme/thesis-go-api/internal/utils"
)

// AuthOptions configures the WithAuth helper. An empty Roles list admits any authenticated user.
type AuthOptions struct {
	Roles       []models.Role
	RequireUser bool
}

// Role sets reused by route registration.
var (
	StaffRoles = []models.Role{
		models.RoleAdmin,
		models.RoleAcademicOfficer,
		models.RoleGraduationThesisManager,
		models.RoleExaminationOfficer,
	}
	AdminOnly = []models.Role{models.RoleAdmin}
)

// WithAuth wraps a handler with basic authentication/authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	requireUser := opts.RequireUser || len(opts.Roles) > 0
	allowed := make(map[models.Role]struct{}, len(opts.Roles))
	for _, role := range opts.Roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		if requireUser && UserID(c) == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if len(allowed) > 0 && !hasAnyRole(UserRoles(c), allowed) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}
