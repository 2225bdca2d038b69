package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/categories
func (h *CategoryHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		log.Error(c, "categories.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"data": cats})
}

// GET /api/brands
func (h *CategoryHandler) Brands(c *fiber.Ctx) error {
	brands, err := h.Catalog.ListBrands(c.UserContext())
	if err != nil {
		log.Error(c, "brands.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"data": brands})
}
