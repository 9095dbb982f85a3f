package handlers

import (
	"errors"
	"fmt"
	"strings"

	"garage/internal/middleware"
	"garage/internal/models"
	"garage/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BoxHandler handles HTTP requests for boxes.
type BoxHandler struct {
	boxes          *services.BoxService
	labels         *services.LabelService
	validate       *validator.Validate
	maxUploadBytes int64
	log            *zap.SugaredLogger
}

// NewBoxHandler creates a new BoxHandler.
func NewBoxHandler(boxes *services.BoxService, labels *services.LabelService, maxUploadBytes int, log *zap.SugaredLogger) *BoxHandler {
	return &BoxHandler{
		boxes:          boxes,
		labels:         labels,
		validate:       validator.New(),
		maxUploadBytes: int64(maxUploadBytes),
		log:            log,
	}
}

// RegisterRoutes registers the box routes. ownsBox must resolve the :id parameter.
func (h *BoxHandler) RegisterRoutes(router fiber.Router, ownsBox fiber.Handler) {
	boxRoutes := router.Group("/boxes")
	boxRoutes.Get("/", h.HandleListBoxes)
	boxRoutes.Post("/", h.HandleCreateBox)
	boxRoutes.Get("/:id", ownsBox, h.HandleGetBox)
	boxRoutes.Put("/:id", ownsBox, h.HandleUpdateBox)
	boxRoutes.Delete("/:id", ownsBox, h.HandleDeleteBox)
	boxRoutes.Post("/:id/regenerate-qr", ownsBox, h.HandleRegenerateQR)
	boxRoutes.Get("/:id/label.pdf", ownsBox, h.HandleBoxLabel)

	router.Get("/labels.pdf", h.HandleAllLabels)
}

// BoxRequest represents the fields of a box, sent as JSON or multipart form.
type BoxRequest struct {
	Name        string `json:"name" form:"name" validate:"required,max=100"`
	Location    string `json:"location" form:"location" validate:"max=200"`
	Description string `json:"description" form:"description"`
	DeleteImage bool   `json:"delete_image" form:"delete_image"`
}

func (r *BoxRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *BoxRequest) input() services.BoxInput {
	return services.BoxInput{
		Name:        r.Name,
		Location:    r.Location,
		Description: r.Description,
	}
}

// HandleListBoxes returns the user's boxes sorted by name.
func (h *BoxHandler) HandleListBoxes(c *fiber.Ctx) error {
	boxes, err := h.boxes.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		h.log.Errorw("failed to list boxes", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve boxes",
		})
	}
	return c.JSON(newBoxResponses(boxes, h.boxes.DisplayURL))
}

// HandleCreateBox creates a box with an optional image.
func (h *BoxHandler) HandleCreateBox(c *fiber.Ctx) error {
	var req BoxRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	image, closeImage, ok, err := h.upload(c)
	if !ok {
		return err
	}
	defer closeImage()

	box, err := h.boxes.Create(c.UserContext(), middleware.UserID(c), req.input(), image)
	if err != nil {
		return h.storageError(c, err, "Could not create box")
	}

	resp := fiber.Map{
		"message": "Box created",
		"box":     newBoxResponse(box, h.boxes.DisplayURL, true),
	}
	if box.QRCodePath == "" {
		resp["warning"] = "Box created, but the QR code could not be generated. You can regenerate it later."
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// HandleGetBox returns a box with its items.
func (h *BoxHandler) HandleGetBox(c *fiber.Ctx) error {
	return c.JSON(newBoxResponse(middleware.Box(c), h.boxes.DisplayURL, true))
}

// HandleUpdateBox updates a box, optionally deleting or replacing its image.
func (h *BoxHandler) HandleUpdateBox(c *fiber.Ctx) error {
	var req BoxRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}
	image, closeImage, ok, err := h.upload(c)
	if !ok {
		return err
	}
	defer closeImage()

	box, err := h.boxes.Update(c.UserContext(), middleware.Box(c), req.input(), image, req.DeleteImage)
	if err != nil {
		return h.storageError(c, err, "Could not update box")
	}
	return c.JSON(fiber.Map{
		"message": "Box updated",
		"box":     newBoxResponse(box, h.boxes.DisplayURL, true),
	})
}

// HandleDeleteBox deletes a box with its items and stored files.
func (h *BoxHandler) HandleDeleteBox(c *fiber.Ctx) error {
	box := middleware.Box(c)
	if err := h.boxes.Delete(c.UserContext(), box); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete box",
		})
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Box %q deleted", box.Name)})
}

// HandleRegenerateQR replaces the box's QR code.
func (h *BoxHandler) HandleRegenerateQR(c *fiber.Ctx) error {
	box, err := h.boxes.RegenerateQR(c.UserContext(), middleware.Box(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not regenerate QR code",
		})
	}
	return c.JSON(fiber.Map{
		"message": "QR code regenerated",
		"box":     newBoxResponse(box, h.boxes.DisplayURL, false),
	})
}

// HandleBoxLabel renders a printable label for one box.
func (h *BoxHandler) HandleBoxLabel(c *fiber.Ctx) error {
	box := middleware.Box(c)
	return h.sendLabels(c, []models.Box{*box}, fmt.Sprintf("box-%d-label.pdf", box.ID))
}

// HandleAllLabels renders labels for every box of the user.
func (h *BoxHandler) HandleAllLabels(c *fiber.Ctx) error {
	boxes, err := h.boxes.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		h.log.Errorw("failed to list boxes for labels", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve boxes",
		})
	}
	return h.sendLabels(c, boxes, "labels.pdf")
}

func (h *BoxHandler) sendLabels(c *fiber.Ctx, boxes []models.Box, filename string) error {
	pdf, err := h.labels.Render(boxes)
	if err != nil {
		h.log.Errorw("failed to render labels", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not render labels",
		})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(filename)
	return c.Send(pdf)
}

// upload extracts the optional "image" file of a multipart request. The
// extension is checked here so a rejected file never reaches storage. When
// ok is false the response has already been written to c.
func (h *BoxHandler) upload(c *fiber.Ctx) (image *services.Upload, closeImage func(), ok bool, err error) {
	noop := func() {}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, noop, true, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, false, invalidBody(c, err)
	}
	files := form.File["image"]
	if len(files) == 0 || files[0].Filename == "" {
		return nil, noop, true, nil
	}
	header := files[0]

	if header.Size > h.maxUploadBytes {
		h.log.Infow("upload rejected: too large", "user_id", middleware.UserID(c), "size", header.Size)
		return nil, noop, false, c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"message": "File too large",
		})
	}
	if !h.boxes.ExtensionAllowed(header.Filename) {
		h.log.Infow("upload rejected: file type", "user_id", middleware.UserID(c), "filename", header.Filename)
		return nil, noop, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  map[string]string{"image": "File type not allowed"},
		})
	}

	f, err := header.Open()
	if err != nil {
		return nil, noop, false, invalidBody(c, err)
	}
	return &services.Upload{Filename: header.Filename, Content: f}, func() { f.Close() }, true, nil
}

func (h *BoxHandler) storageError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, services.ErrDisallowedExtension):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  map[string]string{"image": "File type not allowed"},
		})
	case errors.Is(err, services.ErrStorageFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message + ": the image could not be saved. Please try again.",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
		})
	}
}
