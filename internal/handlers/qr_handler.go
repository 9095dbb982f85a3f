package handlers

import (
	"fmt"

	"garage/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// QRHandler resolves scanned QR codes. Printed labels encode /qr/{box_id},
// so the route shape must not change.
type QRHandler struct{}

// NewQRHandler creates a new QRHandler.
func NewQRHandler() *QRHandler {
	return &QRHandler{}
}

// RegisterRoutes registers GET /qr/:box_id on the app root.
func (h *QRHandler) RegisterRoutes(router fiber.Router, auth, ownsBox fiber.Handler) {
	router.Get("/qr/:box_id", auth, ownsBox, h.HandleScan)
}

// HandleScan redirects to the box detail.
func (h *QRHandler) HandleScan(c *fiber.Ctx) error {
	return c.Redirect(fmt.Sprintf("/api/v1/boxes/%d", middleware.Box(c).ID), fiber.StatusFound)
}
