package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"garage/internal/models"
	"garage/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	resetTokenSalt    = "password-reset-salt"
	resetTokenPurpose = "password-reset"
)

// HashPassword derives a salted bcrypt hash. The plaintext is never stored.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SessionClaims identify the user behind a session token.
type SessionClaims struct {
	UserID   uint
	Username string
}

// SessionTokens issues and validates HS256 session tokens.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionTokens creates a SessionTokens signing with secret.
func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for user that expires after the configured TTL.
func (s *SessionTokens) Issue(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      now.Add(s.ttl).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Validate parses a session token. Every failure is reported as ErrInvalidToken.
func (s *SessionTokens) Validate(tokenString string) (SessionClaims, error) {
	claims, err := parseHS256(tokenString, s.secret)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, isReset := claims["purpose"]; isReset {
		return SessionClaims{}, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return SessionClaims{}, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	return SessionClaims{UserID: uint(userID), Username: username}, nil
}

// ResetTokens produces signed, timestamped password-reset tokens. The signing
// key is derived from the server secret and a fixed salt; session tokens never
// verify as reset tokens.
type ResetTokens struct {
	users repositories.UserRepository
	key   []byte
	now   func() time.Time
}

// NewResetTokens creates ResetTokens resolving subjects through users.
func NewResetTokens(users repositories.UserRepository, secret string) *ResetTokens {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(resetTokenSalt))
	return &ResetTokens{
		users: users,
		key:   mac.Sum(nil),
		now:   time.Now,
	}
}

// Generate returns a token carrying email and the current time.
func (r *ResetTokens) Generate(email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":   email,
		"purpose": resetTokenPurpose,
		"iat":     r.now().Unix(),
	})
	tokenString, err := token.SignedString(r.key)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return tokenString, nil
}

// Verify resolves a token to its user. A bad signature, an undecodable
// payload, an age above maxAge and an unknown email all yield ErrInvalidResetToken.
func (r *ResetTokens) Verify(ctx context.Context, tokenString string, maxAge time.Duration) (*models.User, error) {
	claims, err := parseHS256(tokenString, r.key)
	if err != nil {
		return nil, ErrInvalidResetToken
	}
	if purpose, _ := claims["purpose"].(string); purpose != resetTokenPurpose {
		return nil, ErrInvalidResetToken
	}
	email, _ := claims["email"].(string)
	issuedAt, ok := claims["iat"].(float64)
	if email == "" || !ok {
		return nil, ErrInvalidResetToken
	}
	if r.now().Sub(time.Unix(int64(issuedAt), 0)) > maxAge {
		return nil, ErrInvalidResetToken
	}

	user, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidResetToken
	}
	return user, nil
}

func parseHS256(tokenString string, key []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
