package middleware

import (
	"errors"

	"garage/internal/repositories"
	"garage/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminRequired lets the request through only when the authenticated user is
// an admin. The flag is read from the database, not from the token, so a
// demotion takes effect immediately.
func AdminRequired(admin *services.AdminService, log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		isAdmin, err := admin.IsAdmin(c.UserContext(), userID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			log.Errorw("failed to check admin flag", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not verify permissions"})
		}
		if !isAdmin {
			log.Warnw("non-admin attempted admin access", "user_id", userID, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Admin access required."})
		}
		return c.Next()
	}
}
