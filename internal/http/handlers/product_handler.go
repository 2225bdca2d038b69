package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/domain"
	"storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/products?category=&brand=&search=&page=&limit=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := services.ProductQuery{
		Page:  validate.Int(c.Query("page"), 1),
		Limit: validate.Int(c.Query("limit"), 25),
	}
	for field, dst := range map[string]*string{"category": &q.Category, "brand": &q.Brand} {
		v := strings.TrimSpace(c.Query(field))
		if v == "" {
			continue
		}
		id, ok := validate.ID(v)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": field})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + field})
		}
		*dst = id
	}
	if raw := c.Query("search"); strings.TrimSpace(raw) != "" {
		s, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "search", "value": raw})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid keyword (letters/numbers only)"})
		}
		q.Search = s
	}

	products, err := h.Catalog.ListProducts(c.UserContext(), q)
	if err != nil {
		log.Error(c, "products.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"data": products, "count": len(products)})
}

// GET /api/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
	}
	if err != nil {
		log.Error(c, "products.get.fail", err, map[string]any{"product": id})
		return err
	}
	return c.JSON(productView{Product: p, EffectivePrice: p.EffectivePrice().StringFixed(2)})
}

type productView struct {
	domain.Product
	EffectivePrice string `json:"effectivePrice"`
}
