package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tekriders/auth-service/internal/auth/service"
)

const claimsContextKey = "sessionClaims"

// RequireAuth verifies the bearer token and stores the session claims on the
// request context.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed bearer token"})
		}

		claims, err := h.tokenService.Verify(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(claimsContextKey, claims)

		return c.Next()
	}
}

// RequireRole gates a route to one role; must run after RequireAuth.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFromContext(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or malformed bearer token"})
		}
		if claims.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		return c.Next()
	}
}

// ClaimsFromContext returns the session claims stored by RequireAuth, or nil.
func ClaimsFromContext(c *fiber.Ctx) *service.SessionClaims {
	claims, _ := c.Locals(claimsContextKey).(*service.SessionClaims)
	return claims
}
