package handlers

import (
	"github.com/gofiber/fiber/v2"

	"soukly/internal/log"
	"soukly/internal/services"
	"soukly/internal/validate"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	rows, err := h.Wish.List(c.Cookies("sid"))
	if err != nil {
		log.Error(c, "wishlist.list.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load wishlist"})
	}
	return c.JSON(fiber.Map{"items": rows, "count": len(rows)})
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	if err := h.Wish.Save(c.Cookies("sid"), productID); err != nil {
		log.Error(c, "wishlist.save.error", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Audit(c, "wishlist.save", map[string]any{"product_id": productID})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	productID, ok := validate.ID(c.FormValue("product_id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product_id"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	if err := h.Wish.Unsave(c.Cookies("sid"), productID); err != nil {
		log.Error(c, "wishlist.unsave.error", err, map[string]any{"product_id": productID})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"ok": true})
}
