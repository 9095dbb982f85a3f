package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"garage/internal/models"
	"garage/internal/repositories"

	"go.uber.org/zap"
)

const resetEmailSubject = "Password Reset Request - Garage Inventory"

// AuthService handles registration, login and self-service password resets.
type AuthService struct {
	userRepo    repositories.UserRepository
	sessions    *SessionTokens
	resets      *ResetTokens
	mailer      Mailer
	resetExpiry time.Duration
	baseURL     string // absolute prefix for links in emails
	events      eventSink
	log         *zap.SugaredLogger
}

// AuthConfig holds the settings AuthService needs.
type AuthConfig struct {
	Secret      string
	SessionTTL  time.Duration
	ResetExpiry time.Duration
	BaseURL     string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, mailer Mailer, publisher EventPublisher, cfg AuthConfig, log *zap.SugaredLogger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessions:    NewSessionTokens(cfg.Secret, cfg.SessionTTL),
		resets:      NewResetTokens(userRepo, cfg.Secret),
		mailer:      mailer,
		resetExpiry: cfg.ResetExpiry,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		events:      eventSink{publisher: publisher, log: log},
		log:         log,
	}
}

// RegisterUser creates an account. The password is hashed before it is stored.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if taken, err := s.exists(ctx, s.userRepo.GetByUsername, username); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUsernameTaken
	}
	if taken, err := s.exists(ctx, s.userRepo.GetByEmail, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// Lost a race with a concurrent registration; report the column that clashed.
			if taken, _ := s.exists(ctx, s.userRepo.GetByEmail, email); taken {
				return nil, ErrEmailTaken
			}
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	s.events.emit(ctx, Event{Type: EventUserRegistered, UserID: user.ID, Name: user.Username})
	return user, nil
}

func (s *AuthService) exists(ctx context.Context, get func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
}

// LoginUser authenticates a user and returns a session token.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return "", nil, err
		}
		// Unknown usernames and wrong passwords are indistinguishable to the caller.
		return "", nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.log.Infow("failed login", "user_id", user.ID)
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user)
	if err != nil {
		return "", nil, err
	}
	s.log.Infow("user logged in", "user_id", user.ID)
	return token, user, nil
}

// ValidateToken parses a session token.
func (s *AuthService) ValidateToken(token string) (SessionClaims, error) {
	return s.sessions.Validate(token)
}

// GetUser loads a user by id.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// RequestPasswordReset emails a reset link when email belongs to an account.
// The outcome is never reported to the caller: unknown addresses and mail
// failures look exactly like a successful send.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			s.log.Errorw("password reset lookup failed", "error", err)
		} else {
			s.log.Infow("password reset requested for unknown email")
		}
		return
	}

	token, err := s.resets.Generate(user.Email)
	if err != nil {
		s.log.Errorw("failed to generate reset token", "user_id", user.ID, "error", err)
		return
	}
	link := fmt.Sprintf("%s/api/v1/auth/reset-password/%s", s.baseURL, token)
	minutes := int(s.resetExpiry.Minutes())

	msg := Message{
		To:      user.Email,
		Subject: resetEmailSubject,
		Text:    resetEmailText(user.Username, link, minutes),
		HTML:    resetEmailHTML(user.Username, link, minutes),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Errorw("failed to send password reset email", "user_id", user.ID, "error", err)
		return
	}
	s.log.Infow("password reset email sent", "user_id", user.ID)
}

// CheckResetToken reports whether token is still usable, without consuming it.
func (s *AuthService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.resets.Verify(ctx, token, s.resetExpiry)
	return err
}

// ResetPassword sets a new password for the user a valid reset token names.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.resets.Verify(ctx, token, s.resetExpiry)
	if err != nil {
		return err
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.log.Infow("password reset", "user_id", user.ID)
	s.events.emit(ctx, Event{Type: EventUserPasswordReset, UserID: user.ID})
	return nil
}

func resetEmailText(username, link string, minutes int) string {
	return fmt.Sprintf(`Hello %s,

You requested to reset your password for Garage Inventory.

Click the link below to reset your password:
%s

This link will expire in %d minutes.

If you did not request this password reset, please ignore this email.

Thanks,
Garage Inventory
`, username, link, minutes)
}

func resetEmailHTML(username, link string, minutes int) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2c3e50;">Password Reset Request</h2>
  <p>Hello %s,</p>
  <p>You requested to reset your password for Garage Inventory.</p>
  <p><a href="%s" style="background-color: #3498db; color: #fff; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Reset Password</a></p>
  <p>This link will expire in %d minutes.</p>
  <p>If you did not request this password reset, please ignore this email.</p>
  <p>Thanks,<br>Garage Inventory</p>
</body>
</html>
`, html.EscapeString(username), html.EscapeString(link), minutes)
}
