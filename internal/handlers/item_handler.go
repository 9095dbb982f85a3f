package handlers

import (
	"errors"
	"fmt"
	"strings"

	"garage/internal/middleware"
	"garage/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ItemHandler handles HTTP requests for items.
type ItemHandler struct {
	items    *services.ItemService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items *services.ItemService, log *zap.SugaredLogger) *ItemHandler {
	return &ItemHandler{
		items:    items,
		validate: validator.New(),
		log:      log,
	}
}

// RegisterRoutes registers the item routes. ownsBox resolves :id on box
// routes and ownsItem resolves :id on item routes.
func (h *ItemHandler) RegisterRoutes(router fiber.Router, ownsBox, ownsItem fiber.Handler) {
	router.Post("/boxes/:id/items", ownsBox, h.HandleCreateItem)

	itemRoutes := router.Group("/items")
	itemRoutes.Get("/:id", ownsItem, h.HandleGetItem)
	itemRoutes.Put("/:id", ownsItem, h.HandleUpdateItem)
	itemRoutes.Delete("/:id", ownsItem, h.HandleDeleteItem)
	itemRoutes.Post("/:id/move", ownsItem, h.HandleMoveItem)
	itemRoutes.Post("/:id/duplicate", ownsItem, h.HandleDuplicateItem)
}

// ItemRequest represents the fields of an item. Quantity defaults to 1 and
// value to 0 when omitted.
type ItemRequest struct {
	Name     string   `json:"name" validate:"required,max=100"`
	Quantity *int     `json:"quantity" validate:"omitempty,min=0"`
	Category string   `json:"category" validate:"max=50"`
	Notes    string   `json:"notes"`
	Value    *float64 `json:"value" validate:"omitempty,min=0"`
}

func (r *ItemRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(r.Category)
}

func (r *ItemRequest) input() services.ItemInput {
	in := services.ItemInput{
		Name:     r.Name,
		Quantity: 1,
		Category: r.Category,
		Notes:    r.Notes,
	}
	if r.Quantity != nil {
		in.Quantity = *r.Quantity
	}
	if r.Value != nil {
		in.Value = *r.Value
	}
	return in
}

// HandleCreateItem adds an item to the box in the path.
func (h *ItemHandler) HandleCreateItem(c *fiber.Ctx) error {
	var req ItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	item, err := h.items.Create(c.UserContext(), middleware.Box(c), req.input())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not create item",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": fmt.Sprintf("Item %q added", item.Name),
		"item":    newItemResponse(item),
	})
}

// HandleGetItem returns an item.
func (h *ItemHandler) HandleGetItem(c *fiber.Ctx) error {
	return c.JSON(newItemResponse(middleware.Item(c)))
}

// HandleUpdateItem overwrites an item's fields.
func (h *ItemHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req ItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	item, err := h.items.Update(c.UserContext(), middleware.Item(c), req.input())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update item",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Item updated",
		"item":    newItemResponse(item),
	})
}

// HandleDeleteItem removes an item.
func (h *ItemHandler) HandleDeleteItem(c *fiber.Ctx) error {
	item := middleware.Item(c)
	if err := h.items.Delete(c.UserContext(), item); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete item",
		})
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Item %q deleted", item.Name)})
}

// MoveItemRequest names the destination box of a move.
type MoveItemRequest struct {
	NewBoxID uint `json:"new_box_id" validate:"required"`
}

// HandleMoveItem moves an item into another box of the same user.
func (h *ItemHandler) HandleMoveItem(c *fiber.Ctx) error {
	var req MoveItemRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	item, err := h.items.Move(c.UserContext(), middleware.UserID(c), middleware.Item(c), req.NewBoxID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDestination) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid destination box",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not move item",
		})
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Item %q moved to %q", item.Name, item.Box.Name),
		"item":    newItemResponse(item),
	})
}

// HandleDuplicateItem copies an item within its box.
func (h *ItemHandler) HandleDuplicateItem(c *fiber.Ctx) error {
	dup, err := h.items.Duplicate(c.UserContext(), middleware.Item(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not duplicate item",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item duplicated",
		"item":    newItemResponse(dup),
	})
}
