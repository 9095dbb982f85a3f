package handlers

import (
	"garage/internal/middleware"
	"garage/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SearchHandler handles searches within the user's inventory.
type SearchHandler struct {
	search     *services.SearchService
	displayURL func(string) string
	log        *zap.SugaredLogger
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(search *services.SearchService, boxes *services.BoxService, log *zap.SugaredLogger) *SearchHandler {
	return &SearchHandler{search: search, displayURL: boxes.DisplayURL, log: log}
}

// RegisterRoutes registers the search routes.
func (h *SearchHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/search", h.HandleSearch)
	router.Get("/categories", h.HandleCategories)
}

// HandleSearch answers GET /search?q=&type=all|boxes|items&category=.
func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	scope := services.ParseSearchScope(c.Query("type"))
	category := c.Query("category")

	result, err := h.search.Search(c.UserContext(), middleware.UserID(c), query, scope, category)
	if err != nil {
		h.log.Errorw("search failed", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not search",
		})
	}
	return c.JSON(fiber.Map{
		"query":    query,
		"type":     scope,
		"category": category,
		"boxes":    newBoxResponses(result.Boxes, h.displayURL),
		"items":    newItemResponses(result.Items),
	})
}

// HandleCategories lists the categories used in the user's items.
func (h *SearchHandler) HandleCategories(c *fiber.Ctx) error {
	categories, err := h.search.Categories(c.UserContext(), middleware.UserID(c))
	if err != nil {
		h.log.Errorw("failed to list categories", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve categories",
		})
	}
	return c.JSON(fiber.Map{"categories": categories})
}
