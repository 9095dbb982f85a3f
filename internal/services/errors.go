package services

import "errors"

// Sentinel errors returned by the services. Handlers map them to status codes with errors.Is.
var (
	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = errors.New("invalid or expired session")
	ErrInvalidResetToken   = errors.New("invalid or expired reset link")
	ErrStorageFailed       = errors.New("storage operation failed")
	ErrInvalidDestination  = errors.New("destination box not found or not owned")
	ErrDisallowedExtension = errors.New("file type not allowed")
)

// ErrSelfModification is returned when an admin tries to delete or demote their own account.
var ErrSelfModification = errors.New("admins cannot delete or demote themselves")
