package models

import "time"

// User is an account that owns boxes. Deleting a user deletes its boxes and their items.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:80;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // never serialized
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`

	Boxes []Box `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
