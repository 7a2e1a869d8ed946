package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"soukly/internal/domain"
	"soukly/internal/log"
	"soukly/internal/services"
	"soukly/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List serves the ranked listing. Preferred categories come from the
// caller (?prefs=electronics,fashion) and only add the personalization
// boost; admin pinning and freshness do the rest.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	prefs, ok := validate.IDList(c.Query("prefs"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "prefs"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid prefs"})
	}
	categoryID := strings.TrimSpace(c.Query("category"))
	if categoryID != "" {
		if _, ok := validate.ID(categoryID); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category"})
		}
	}

	products, err := h.Catalog.ListRanked(c.Context(), prefs, categoryID,
		c.QueryInt("page", 1), c.QueryInt("page_size", 12))
	if err != nil {
		log.Error(c, "products.list.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load products"})
	}
	return c.JSON(fiber.Map{"products": products, "count": len(products)})
}

func (h *ProductHandler) Search(c *fiber.Ctx) error {
	q, ok := validate.Q(c.Query("q"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a valid keyword"})
	}
	categoryID := strings.TrimSpace(c.Query("category"))
	if categoryID != "" {
		if _, ok := validate.ID(categoryID); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid category"})
		}
	}

	products, err := h.Catalog.Search(c.Context(), strings.ToLower(q), categoryID,
		c.QueryInt("page", 1), c.QueryInt("page_size", 20))
	if err != nil {
		log.Error(c, "search.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load results"})
	}
	return c.JSON(fiber.Map{"q": q, "products": products, "count": len(products)})
}

// Detail returns one product and records the view signal.
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	p, err := h.Catalog.GetProduct(c.Context(), id, c.Cookies("sid"))
	if err != nil || p.ID == "" || !p.Active || p.DeletedAt != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	}
	return c.JSON(fiber.Map{
		"product":      p,
		"availability": domain.AvailabilityOf(p.TotalStock()),
	})
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		log.Error(c, "categories.error", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load categories"})
	}
	return c.JSON(cats)
}
