package handlers

import (
	"errors"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
	"storefront/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Order   *services.OrderService
	Catalog *services.CatalogService
	Users   *repos.UserRepo
}

type statusBody struct {
	Status string `json:"status"`
}

// PUT /api/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	var in statusBody
	if err := c.BodyParser(&in); err != nil || !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing id or status"})
	}
	err := h.Order.UpdateStatus(c.UserContext(), id, in.Status)
	switch {
	case errors.Is(err, services.ErrInvalidStatus):
		applog.Security(c, "validation.fail", map[string]any{"field": "status", "value": in.Status})
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "order not found"})
	case err != nil:
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id})
		return err
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": in.Status})
	return c.JSON(fiber.Map{"id": id, "status": in.Status})
}

type stockBody struct {
	Stock    *int  `json:"stock"`
	IsActive *bool `json:"isActive"`
}

// PUT /api/admin/products/:id/stock
//
// An explicit isActive=false hides the product from listings and makes
// availability read OUT_OF_STOCK, but order placement gates on stock only.
// The next decrement rewrites isActive from the remaining stock, so a
// deactivated product that still sells comes back active.
func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	pid, okID := validate.ID(c.Params("id"))
	var in stockBody
	if err := c.BodyParser(&in); err != nil || !okID || in.Stock == nil || *in.Stock < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid input"})
	}
	p, err := h.Catalog.SetStock(c.UserContext(), pid, *in.Stock, in.IsActive)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		applog.Error(c, "admin.inventory.save.fail", err, map[string]any{"product": pid, "stock": *in.Stock})
		return err
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product": pid, "stock": p.Stock, "active": p.IsActive})
	return c.JSON(p)
}

// GET /api/admin/users lists non-admin users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.ListCustomers(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"data": users})
}

// DeleteUser removes a user with sessions and favorites; pending orders are canceled.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "missing id"})
	}
	if who := Identity(c); who != nil && who.ID == id {
		return c.Status(400).JSON(fiber.Map{"error": "cannot delete yourself"})
	}
	err := h.Users.DeleteUserCascade(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "user not found"})
	}
	if err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return err
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
