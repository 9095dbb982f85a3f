package handlers

import (
	"errors"

	"garage/internal/middleware"
	"garage/internal/repositories"
	"garage/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AdminHandler handles the administrative back-office.
type AdminHandler struct {
	admin      *services.AdminService
	displayURL func(string) string
	validate   *validator.Validate
	log        *zap.SugaredLogger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *services.AdminService, boxes *services.BoxService, log *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{
		admin:      admin,
		displayURL: boxes.DisplayURL,
		validate:   validator.New(),
		log:        log,
	}
}

// RegisterRoutes registers the admin routes behind the given guards.
func (h *AdminHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	adminRoutes := router.Group("/admin", guards...)
	adminRoutes.Get("/users", h.HandleListUsers)
	adminRoutes.Patch("/users/:id", h.HandleUpdateUser)
	adminRoutes.Delete("/users/:id", h.HandleDeleteUser)
	adminRoutes.Get("/boxes", h.HandleListBoxes)
	adminRoutes.Get("/items", h.HandleListItems)
}

// HandleListUsers lists users, filtered by ?q= on username or email.
func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	users, err := h.admin.ListUsers(c.UserContext(), c.Query("q"))
	if err != nil {
		h.log.Errorw("failed to list users", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve users"})
	}
	return c.JSON(users)
}

// UpdateUserRequest changes a user's admin flag.
type UpdateUserRequest struct {
	IsAdmin *bool `json:"is_admin" validate:"required"`
}

// HandleUpdateUser promotes or demotes a user.
func (h *AdminHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	var req UpdateUserRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.admin.SetAdmin(c.UserContext(), middleware.UserID(c), uint(id), *req.IsAdmin)
	if err != nil {
		return h.userError(c, err, "Could not update user")
	}
	return c.JSON(fiber.Map{"message": "User updated", "user": user})
}

// HandleDeleteUser deletes a user with all their boxes, items and files.
func (h *AdminHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	if err := h.admin.DeleteUser(c.UserContext(), middleware.UserID(c), uint(id)); err != nil {
		return h.userError(c, err, "Could not delete user")
	}
	return c.JSON(fiber.Map{"message": "User deleted"})
}

// HandleListBoxes lists boxes of all users.
func (h *AdminHandler) HandleListBoxes(c *fiber.Ctx) error {
	boxes, err := h.admin.ListBoxes(c.UserContext(), c.Query("q"))
	if err != nil {
		h.log.Errorw("failed to list boxes", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve boxes"})
	}
	return c.JSON(newBoxResponses(boxes, h.displayURL))
}

// HandleListItems lists items of all users.
func (h *AdminHandler) HandleListItems(c *fiber.Ctx) error {
	items, err := h.admin.ListItems(c.UserContext(), c.Query("q"))
	if err != nil {
		h.log.Errorw("failed to list items", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve items"})
	}
	return c.JSON(newItemResponses(items))
}

func (h *AdminHandler) userError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, services.ErrSelfModification):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": message, "error": err.Error()})
	case errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	default:
		h.log.Errorw(message, "actor_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": message})
	}
}
