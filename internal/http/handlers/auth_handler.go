package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type registerBody struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// POST /api/auth/local
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginBody
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	email, ok := validate.Email(in.Identifier)
	if !ok || in.Password == "" {
		log.Security(c, "auth.login.fail", map[string]any{"email": in.Identifier, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	token, u, err := h.Auth.Login(c.UserContext(), email, in.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	if err != nil {
		log.Error(c, "auth.login.error", err, nil)
		return err
	}

	c.Locals(identityKey, u.Identity())
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(authResponse{Token: token, User: u})
}

// POST /api/auth/local/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in registerBody
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid email"})
	}
	username := in.Username
	if username != "" {
		if username, ok = validate.Username(username); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "username"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "username must be 1-40 characters"})
		}
	}
	if !validate.Password(in.Password) {
		log.Security(c, "validation.fail", map[string]any{"field": "password"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password needs 8-72 characters with upper, lower, digit and symbol",
		})
	}

	token, u, err := h.Auth.Register(c.UserContext(), email, username, in.Password)
	if errors.Is(err, services.ErrEmailTaken) {
		log.Security(c, "auth.register.fail", map[string]any{"email": email, "reason": "taken"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Error(c, "auth.register.error", err, nil)
		return err
	}
	c.Locals(identityKey, u.Identity())
	log.Audit(c, "auth.register", map[string]any{"email": email})
	return c.JSON(authResponse{Token: token, User: u})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok := bearerToken(c)
	if tok == "" {
		return c.SendStatus(fiber.StatusNoContent)
	}
	if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
		log.Error(c, "auth.logout.error", err, nil)
		return err
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
