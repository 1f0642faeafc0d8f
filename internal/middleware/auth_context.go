package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/examind-api/internal/dto"
	"github.com/noah-isme/examind-api/internal/utils"
)

// AuthResolver re-fetches the caller's role and plan/grade profile.
type AuthResolver interface {
	Resolve(ctx context.Context, userID uint) (dto.AuthContext, error)
}

const authContextKey = "auth_context"

// LoadAuthContext resolves the full authorization context for the user id
// placed in locals by JWTProtected. The context is re-fetched on every
// request; role or plan changes take effect immediately.
func LoadAuthContext(resolver AuthResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		authCtx, err := resolver.Resolve(c.Context(), userID)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "unknown user")
		}

		c.Locals(authContextKey, authCtx)

		return c.Next()
	}
}

// AuthContextFromLocals returns the resolved context for the active request.
func AuthContextFromLocals(c *fiber.Ctx) (dto.AuthContext, bool) {
	authCtx, ok := c.Locals(authContextKey).(dto.AuthContext)
	return authCtx, ok
}
