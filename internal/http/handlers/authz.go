package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
)

const identityKey = "identity"

// Identity returns the caller resolved by Bearer, or nil.
func Identity(c *fiber.Ctx) *domain.Identity {
	who, _ := c.Locals(identityKey).(*domain.Identity)
	return who
}

func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Bearer attaches the identity behind "Authorization: Bearer <token>" when the
// token is known. Unknown tokens are treated as anonymous.
func Bearer(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tok := bearerToken(c); tok != "" {
			if who, err := auth.Identify(c.UserContext(), tok); err == nil {
				c.Locals(identityKey, who)
			}
		}
		return c.Next()
	}
}

// RequireUser answers 401 when no identity is attached.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Identity(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		return c.Next()
	}
}

func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		who := Identity(c)
		if who == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !who.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"role_type": who.RoleType, "role_name": who.RoleName})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}

// Authorize runs policy against the route param (empty param means no target).
func Authorize(policy *services.OwnerPolicy, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var target string
		if param != "" {
			target = c.Params(param)
		}
		who := Identity(c)
		if who == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !policy.Authorize(c.UserContext(), who, target) {
			applog.Security(c, "access.denied."+policy.Resource, map[string]any{"target": target})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		return c.Next()
	}
}
