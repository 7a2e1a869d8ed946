package handlers

import (
	"github.com/gofiber/fiber/v2"

	"soukly/internal/log"
	"soukly/internal/repos"
	"soukly/internal/services"
	"soukly/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Repo  *repos.OrderRepo
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "name"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid name"})
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "email"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid email"})
	}

	orderID, total, err := h.Order.Place(c.Context(), c.Cookies("sid"),
		services.Contact{Name: name, Email: email})
	if err != nil {
		log.Error(c, "order.place.error", err, nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log.Audit(c, "order.place", map[string]any{"order_id": orderID, "total": total})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order_id": orderID, "total": total})
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	order, items, err := h.Repo.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	// Orders are session-scoped; other sessions get a 404, not a 403,
	// to avoid confirming the id exists.
	if order.SessionID != c.Cookies("sid") {
		log.Security(c, "order.view.denied", map[string]any{"order_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return c.JSON(fiber.Map{"order": order, "items": items})
}
