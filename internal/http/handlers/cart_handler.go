package handlers

import (
	"github.com/gofiber/fiber/v2"

	"soukly/internal/log"
	"soukly/internal/services"
	"soukly/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	view, err := h.Cart.View(c.Cookies("sid"))
	if err != nil {
		log.Error(c, "cart.view.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load cart"})
	}
	return c.JSON(view)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	variantID := c.FormValue("variant_id")
	if variantID != "" {
		if _, ok := validate.ID(variantID); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "variant_id"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid variant"})
		}
	}
	qty := validate.Qty(c.FormValue("qty"))

	if err := h.Cart.Add(c.Context(), c.Cookies("sid"), productID, variantID, qty); err != nil {
		log.Error(c, "cart.add.error", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Audit(c, "cart.add", map[string]any{"product_id": productID, "qty": qty})
	return c.JSON(fiber.Map{"ok": true})
}
