package middleware

import (
	"garage/internal/models"
	"garage/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OwnsBox resolves the box id in the named route parameter through the
// guard. Authorized requests continue with the box in Locals; unknown ids
// get 404 and boxes of other users get 403.
func OwnsBox(guard *services.OwnershipGuard, param string, log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt(param)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Box not found"})
		}

		access, err := guard.Box(c.UserContext(), UserID(c), uint(id))
		if err != nil {
			log.Errorw("failed to load box", "user_id", UserID(c), "box_id", id, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve box"})
		}

		switch access.Outcome {
		case services.Authorized:
			c.Locals(LocalBox, access.Entity)
			return c.Next()
		case services.Denied:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to access this box.",
			})
		default:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Box not found"})
		}
	}
}

// OwnsItem is OwnsBox for items; ownership is that of the item's box.
func OwnsItem(guard *services.OwnershipGuard, param string, log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt(param)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Item not found"})
		}

		access, err := guard.Item(c.UserContext(), UserID(c), uint(id))
		if err != nil {
			log.Errorw("failed to load item", "user_id", UserID(c), "item_id", id, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve item"})
		}

		switch access.Outcome {
		case services.Authorized:
			c.Locals(LocalItem, access.Entity)
			return c.Next()
		case services.Denied:
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "You do not have permission to access this item.",
			})
		default:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Item not found"})
		}
	}
}

// Box returns the box stored by OwnsBox.
func Box(c *fiber.Ctx) *models.Box {
	box, _ := c.Locals(LocalBox).(*models.Box)
	return box
}

// Item returns the item stored by OwnsItem.
func Item(c *fiber.Ctx) *models.Item {
	item, _ := c.Locals(LocalItem).(*models.Item)
	return item
}
