package handlers

import (
	"time"

	"garage/internal/database"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// RegisterRoutes registers GET /health.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when the database responds and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	if err := database.Ping(h.db); err != nil {
		h.log.Errorw("health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "disconnected",
			"time":     time.Now().Format(time.RFC3339),
		})
	}
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"database": "connected",
		"time":     time.Now().Format(time.RFC3339),
	})
}
