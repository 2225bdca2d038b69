package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type UserHandler struct {
	Users *repos.UserRepo
	Favs  *services.FavoritesService
}

type profile struct {
	*domain.User
	Favorites []domain.Product `json:"favorites"`
}

func (h *UserHandler) profile(c *fiber.Ctx, userID string) error {
	u, err := h.Users.ByID(c.UserContext(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		applog.Error(c, "users.get.fail", err, map[string]any{"user_id": userID})
		return err
	}
	favs, err := h.Favs.List(c.UserContext(), userID)
	if err != nil {
		applog.Error(c, "favorites.list.fail", err, map[string]any{"user_id": userID})
		return err
	}
	return c.JSON(profile{User: u, Favorites: favs})
}

// GET /api/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	return h.profile(c, Identity(c).ID)
}

// GET /api/users/:id (behind the self policy)
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
	}
	return h.profile(c, id)
}

// updateMeBody leaves favorites untouched when the key is absent; an explicit
// [] clears them.
type updateMeBody struct {
	Favorites *[]string `json:"favorites"`
}

// PUT /api/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var in updateMeBody
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed body"})
	}
	who := Identity(c)
	if in.Favorites == nil {
		return h.profile(c, who.ID)
	}
	for _, pid := range *in.Favorites {
		if _, ok := validate.ID(pid); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "favorites"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
		}
	}
	favs, err := h.Favs.Replace(c.UserContext(), who.ID, *in.Favorites)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown product in favorites"})
	}
	if err != nil {
		applog.Error(c, "favorites.save.fail", err, nil)
		return err
	}
	applog.Audit(c, "favorites.save", map[string]any{"count": len(favs)})
	return h.profile(c, who.ID)
}
