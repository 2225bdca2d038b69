package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type InventoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/availability?productId=
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.Query("productId"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing productId",
		})
	}

	avail, err := h.Catalog.CheckAvailability(c.UserContext(), productID)
	if err != nil {
		log.Error(c, "availability.fail", err, map[string]any{"product": productID})
		return err
	}
	return c.JSON(avail)
}
