package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edusync-assessment-api/internal/models"
	"github.com/noah-isme/edusync-assessment-api/internal/utils"
)

// Auth role constants used by WithAuth.
const (
	AuthRoleAny     = "any"
	AuthRoleStaff   = "staff"
	AuthRoleStudent = models.RoleStudent
)

// AuthOptions configures WithAuth.
type AuthOptions struct {
	Role string
	// SelfParam names a route parameter holding a user id. Non-staff callers may only
	// access routes where it equals their own id.
	SelfParam string
}

// WithAuth wraps a handler with authentication and per-route authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(LocalUserID).(uint)
		if !ok || userID == 0 {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		currentRole := normalizeRoleValue(c.Locals(LocalUserRole))
		staff := isStaffRole(currentRole)

		switch role {
		case AuthRoleAny:
		case AuthRoleStaff:
			if !staff {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		default:
			if currentRole != role {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		if opts.SelfParam != "" && !staff {
			target, err := strconv.ParseUint(c.Params(opts.SelfParam), 10, 64)
			if err != nil || uint(target) != userID {
				return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
			}
		}

		return handler(c)
	}
}
