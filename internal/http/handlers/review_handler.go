package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"soukly/internal/log"
	"soukly/internal/repos"
	"soukly/internal/validate"
)

type ReviewHandler struct {
	Prods   *repos.ProductRepo
	Reviews *repos.ReviewRepo
}

// Create posts a review against a product. The rating lands on the
// product's seller and feeds the store-rating signal on the next
// recalculation.
func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	rating, ok := validate.Rating(c.FormValue("rating"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "rating"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "rating must be in [0,5]"})
	}
	comment := strings.TrimSpace(c.FormValue("comment"))
	if len(comment) > 500 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "comment too long"})
	}

	p, err := h.Prods.Get(c.Context(), id)
	if err != nil || !p.Active || p.DeletedAt != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	if err := h.Reviews.Add(p.ID, p.SellerID, rating, comment); err != nil {
		log.Error(c, "review.create.error", err, map[string]any{"product_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save review"})
	}
	log.Audit(c, "review.create", map[string]any{"product_id": id, "rating": rating})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true})
}
