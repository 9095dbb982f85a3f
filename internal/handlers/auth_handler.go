package handlers

import (
	"errors"
	"time"

	"garage/internal/middleware"
	"garage/internal/repositories"
	"garage/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const forgotPasswordMessage = "If an account with that email exists, a reset link has been sent."

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	sessionTTL    time.Duration
	secureCookies bool
	log           *zap.SugaredLogger
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set whenever the app is served over HTTPS.
func NewAuthHandler(authService *services.AuthService, sessionTTL time.Duration, secureCookies bool, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      validator.New(),
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
		log:           log,
	}
}

// RegisterRoutes registers the authentication routes. auth guards the
// routes that need a session.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", auth, h.HandleLogout)
	authRoutes.Post("/forgot-password", h.HandleForgotPassword)
	authRoutes.Get("/reset-password/:token", h.HandleCheckResetToken)
	authRoutes.Post("/reset-password/:token", h.HandleResetPassword)

	router.Get("/me", auth, h.HandleMe)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=80"`
	Email           string `json:"email" validate:"required,email,max=120"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUsernameTaken) || errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		h.log.Errorw("failed to register user", "username", req.Username, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login and issues a JWT token, both in the body
// and as an HttpOnly session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid username or password",
			})
		}
		h.log.Errorw("login failed", "username", req.Username, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not log in",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.sessionTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// HandleLogout clears the session cookie. Bearer tokens expire on their own.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	h.log.Infow("user logged out", "user_id", middleware.UserID(c))
	return c.JSON(fiber.Map{"message": "You have been logged out."})
}

// ForgotPasswordRequest represents the request body for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleForgotPassword always answers the same way so callers cannot probe
// which addresses are registered.
func (h *AuthHandler) HandleForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	return c.JSON(fiber.Map{"message": forgotPasswordMessage})
}

// HandleCheckResetToken reports whether a reset link can still be used.
func (h *AuthHandler) HandleCheckResetToken(c *fiber.Ctx) error {
	if err := h.authService.CheckResetToken(c.UserContext(), c.Params("token")); err != nil {
		return invalidResetLink(c)
	}
	return c.JSON(fiber.Map{"message": "Reset link is valid"})
}

// ResetPasswordRequest represents the request body for setting a new password.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// HandleResetPassword sets a new password using a reset token.
func (h *AuthHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := bind(c, h.validate, &req); !ok {
		return err
	}

	if err := h.authService.ResetPassword(c.UserContext(), c.Params("token"), req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidResetToken) {
			return invalidResetLink(c)
		}
		h.log.Errorw("failed to reset password", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not reset password",
		})
	}
	return c.JSON(fiber.Map{"message": "Your password has been reset. You can now log in."})
}

func invalidResetLink(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "The password reset link is invalid or has expired.",
	})
}

// HandleMe returns the authenticated user.
func (h *AuthHandler) HandleMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Account no longer exists"})
		}
		h.log.Errorw("failed to load current user", "user_id", middleware.UserID(c), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Could not retrieve user"})
	}
	return c.JSON(user)
}
