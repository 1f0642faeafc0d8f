package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/examind-api/internal/utils"
)

// RequireRole ensures that the resolved auth context holds one of the allowed
// roles. It must run after LoadAuthContext.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		authCtx, ok := AuthContextFromLocals(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[authCtx.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
