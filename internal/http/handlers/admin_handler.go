package handlers

import (
	"github.com/gofiber/fiber/v2"

	"soukly/internal/engine"
	"soukly/internal/log"
	"soukly/internal/repos"
	"soukly/internal/services"
	"soukly/internal/validate"
)

type AdminHandler struct {
	Engine    *engine.Engine
	Prods     *repos.ProductRepo
	Orders    *services.OrderService
	OrderRepo *repos.OrderRepo
}

// RecalculateAll runs a full catalog recalculation synchronously and
// returns the run summary. The scheduler does the same on its interval;
// this endpoint exists for operators.
func (h *AdminHandler) RecalculateAll(c *fiber.Ctx) error {
	summary, err := h.Engine.RecalculateAll(c.Context())
	if err != nil {
		log.Error(c, "admin.recalc.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "recalculation failed"})
	}
	log.Audit(c, "admin.recalc", map[string]any{
		"total": summary.Total, "updated": summary.Updated, "errored": summary.Errored,
	})
	return c.JSON(fiber.Map{
		"total":       summary.Total,
		"updated":     summary.Updated,
		"errored":     summary.Errored,
		"duration_ms": summary.Duration.Milliseconds(),
	})
}

func (h *AdminHandler) RecalculateOne(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	p, err := h.Engine.RecalculateOne(c.Context(), id)
	if err != nil {
		log.Error(c, "admin.recalc.one.error", err, map[string]any{"product_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "recalculation failed"})
	}
	log.Audit(c, "admin.recalc.one", map[string]any{"product_id": id})
	return c.JSON(p)
}

// SetRanking applies the admin overrides that dominate the query-time
// ranking: the featured flag and the manual priority score.
func (h *AdminHandler) SetRanking(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product"})
	}
	priority, ok := validate.Priority(c.FormValue("priority_score", "0"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "priority_score must be in [0,100]"})
	}
	featured := c.FormValue("featured") == "true"

	if err := h.Prods.SetRanking(c.Context(), id, featured, priority); err != nil {
		log.Error(c, "admin.ranking.error", err, map[string]any{"product_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}
	log.Audit(c, "admin.ranking", map[string]any{
		"product_id": id, "featured": featured, "priority_score": priority,
	})
	return c.JSON(fiber.Map{"ok": true})
}

// ListOrders serves the operator view of recent orders.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.OrderRepo.ListLatest(c.QueryInt("limit", 50))
	if err != nil {
		log.Error(c, "admin.orders.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load orders"})
	}
	return c.JSON(fiber.Map{"orders": orders, "count": len(orders)})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order"})
	}
	status, ok := validate.OrderStatus(c.FormValue("status"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid status"})
	}
	if err := h.Orders.UpdateStatus(c.Context(), id, status); err != nil {
		log.Error(c, "admin.order.status.error", err, map[string]any{"order_id": id})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed"})
	}
	log.Audit(c, "admin.order.status", map[string]any{"order_id": id, "status": status})
	return c.JSON(fiber.Map{"ok": true})
}
