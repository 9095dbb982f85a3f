// Package server assembles repositories, services and handlers into a
// fiber application.
package server

import (
	"path/filepath"
	"strings"

	"garage/internal/config"
	"garage/internal/handlers"
	"garage/internal/middleware"
	"garage/internal/repositories"
	"garage/internal/services"
	"garage/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// uploadOverhead is the room left in the body limit for multipart framing
// and form fields around the largest accepted image.
const uploadOverhead = 1 << 20

// Deps are the external collaborators of the application.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Storage   storage.Backend
	Mailer    services.Mailer
	Publisher services.EventPublisher // nil disables inventory events
	Log       *zap.SugaredLogger
}

// Server is the assembled application.
type Server struct {
	App   *fiber.App
	Auth  *services.AuthService
	Admin *services.AdminService
}

// New wires every layer and registers the routes.
func New(d Deps) *Server {
	cfg := d.Config
	log := d.Log

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(d.DB)
	boxRepo := repositories.NewGORMBoxRepository(d.DB)
	itemRepo := repositories.NewGORMItemRepository(d.DB)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, d.Mailer, d.Publisher, services.AuthConfig{
		Secret:      cfg.SecretKey,
		SessionTTL:  cfg.SessionTTL,
		ResetExpiry: cfg.PasswordResetExpiry,
		BaseURL:     cfg.PublicBaseURL,
	}, log)
	qrService := services.NewQRService(d.Storage, log)
	boxService := services.NewBoxService(boxRepo, d.Storage, qrService, cfg.AllowedExtensions, d.Publisher, log)
	itemService := services.NewItemService(itemRepo, boxRepo, d.Publisher, log)
	searchService := services.NewSearchService(boxRepo, itemRepo)
	adminService := services.NewAdminService(userRepo, boxRepo, itemRepo, d.Storage, log)
	labelService := services.NewLabelService(qrService, log)
	guard := services.NewOwnershipGuard(boxRepo, itemRepo, log)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService, cfg.SessionTTL, cfg.Env == config.EnvProduction, log)
	boxHandler := handlers.NewBoxHandler(boxService, labelService, cfg.MaxUploadBytes, log)
	itemHandler := handlers.NewItemHandler(itemService, log)
	searchHandler := handlers.NewSearchHandler(searchService, boxService, log)
	adminHandler := handlers.NewAdminHandler(adminService, boxService, log)
	healthHandler := handlers.NewHealthHandler(d.DB, log)
	qrHandler := handlers.NewQRHandler()

	// --- Initialize Fiber App ---
	app := fiber.New(fiber.Config{
		AppName:      "garage-inventory",
		BodyLimit:    cfg.MaxUploadBytes + uploadOverhead,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))

	auth := middleware.AuthRequired(authService, log)
	ownsBox := middleware.OwnsBox(guard, "id", log)
	ownsItem := middleware.OwnsItem(guard, "id", log)

	healthHandler.RegisterRoutes(app)
	qrHandler.RegisterRoutes(app, auth, middleware.OwnsBox(guard, "box_id", log))
	if local, ok := d.Storage.(*storage.LocalBackend); ok {
		app.Static(staticPrefix(local), local.BasePath(), fiber.Static{Browse: false})
	}

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")

	// Authentication routes (public, except logout and /me)
	authHandler.RegisterRoutes(apiV1, auth)

	// Admin routes check the flag in the database on every request
	adminHandler.RegisterRoutes(apiV1, auth, middleware.AdminRequired(adminService, log))

	// Protected routes (require JWT authentication)
	protectedRoutes := apiV1.Group("", auth)
	boxHandler.RegisterRoutes(protectedRoutes, ownsBox)
	itemHandler.RegisterRoutes(protectedRoutes, ownsBox, ownsItem)
	searchHandler.RegisterRoutes(protectedRoutes)

	return &Server{App: app, Auth: authService, Admin: adminService}
}

// staticPrefix is the URL prefix under which DisplayURL places local files.
func staticPrefix(local *storage.LocalBackend) string {
	prefix := local.DisplayURL(filepath.Clean(local.BasePath()))
	return "/" + strings.TrimLeft(prefix, "/")
}
