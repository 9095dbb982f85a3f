package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler answers errors no handler dealt with, including recovered
// panics, without leaking internals to the client.
func ErrorHandler(log *zap.SugaredLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Errorw("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
			message = "Internal Server Error"
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
