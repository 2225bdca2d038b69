package handlers

import (
	"errors"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/services"
	"storefront/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
}

type orderLineIn struct {
	Product  string          `json:"product"`
	Quantity decimal.Decimal `json:"quantity"`
}

type orderPayload struct {
	Items []orderLineIn    `json:"items"`
	Total *decimal.Decimal `json:"total"`
}

// placeOrderBody accepts both {data: {...}} and the bare payload.
type placeOrderBody struct {
	Data *orderPayload `json:"data"`
	orderPayload
}

var maxQty = decimal.NewFromInt(math.MaxInt32)

// POST /api/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var body placeOrderBody
	if err := c.BodyParser(&body); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "body"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed order body"})
	}
	in := body.orderPayload
	if body.Data != nil {
		in = *body.Data
	}
	if in.Total == nil {
		applog.Security(c, "validation.fail", map[string]any{"field": "total"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "total is required"})
	}

	lines := make([]services.LineRequest, 0, len(in.Items))
	for _, it := range in.Items {
		if !it.Quantity.IsInteger() || it.Quantity.Abs().GreaterThan(maxQty) {
			return h.placeFailed(c, services.ErrInvalidQuantity)
		}
		lines = append(lines, services.LineRequest{ProductID: it.Product, Quantity: int(it.Quantity.IntPart())})
	}

	o, err := h.Order.Place(c.UserContext(), Identity(c), lines, *in.Total)
	if err != nil {
		return h.placeFailed(c, err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID,
		"total":    o.Total.StringFixed(2),
		"lines":    len(o.Items),
	})
	return c.JSON(o)
}

func (h *OrderHandler) placeFailed(c *fiber.Ctx, err error) error {
	var (
		notFound *services.ProductNotFoundError
		short    *services.InsufficientStockError
		mismatch *services.TotalMismatchError
		create   *services.CreationError
	)
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrEmptyOrder), errors.Is(err, services.ErrInvalidQuantity):
		applog.Security(c, "order.place.fail", map[string]any{"reason": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &notFound):
		applog.Security(c, "order.place.fail", map[string]any{"reason": "product_not_found", "product": notFound.ProductID})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "product not found", "product": notFound.ProductID})
	case errors.As(err, &short):
		applog.Security(c, "order.place.fail", map[string]any{
			"reason":    "insufficient_stock",
			"product":   short.ProductID,
			"available": short.Available,
			"requested": short.Requested,
		})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "insufficient stock",
			"product":   short.ProductID,
			"available": short.Available,
			"requested": short.Requested,
		})
	case errors.As(err, &mismatch):
		applog.Security(c, "order.place.fail", map[string]any{
			"reason":         "total_mismatch",
			"client_total":   mismatch.Client.String(),
			"computed_total": mismatch.Computed.StringFixed(2),
		})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":         "order total does not match",
			"clientTotal":   mismatch.Client.String(),
			"computedTotal": mismatch.Computed.StringFixed(2),
		})
	case errors.As(err, &create):
		applog.Error(c, "order.place.error", create.Err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not create order"})
	}
	return err
}

// GET /api/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Order.List(c.UserContext(), Identity(c))
	if err != nil {
		applog.Error(c, "orders.list.fail", err, nil)
		return err
	}
	return c.JSON(fiber.Map{"data": orders})
}

// GET /api/orders/:id (behind the order policy)
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, err := h.Order.Get(c.UserContext(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	if err != nil {
		applog.Error(c, "orders.get.fail", err, map[string]any{"order_id": id})
		return err
	}
	return c.JSON(o)
}

// PUT /api/orders/:id/cancel (behind the order policy)
func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	o, err := h.Order.Cancel(c.UserContext(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	case errors.Is(err, services.ErrNotCancelable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		applog.Error(c, "orders.cancel.fail", err, map[string]any{"order_id": id})
		return err
	}
	applog.Audit(c, "order.cancel", map[string]any{"order_id": id})
	return c.JSON(o)
}
