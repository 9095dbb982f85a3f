package models

import (
	"sort"
	"time"
)

// Box is a physical storage container owned by exactly one user.
type Box struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null;index"`
	Location    string    `json:"location" gorm:"size:200"`
	Description string    `json:"description" gorm:"type:text"`
	QRCodePath  string    `json:"qr_code_path" gorm:"size:500"` // location returned by the storage backend
	ImagePath   string    `json:"image_path" gorm:"size:500"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items []Item `json:"items,omitempty" gorm:"foreignKey:BoxID;constraint:OnDelete:CASCADE"`
}

// IsOwnedBy reports whether the box belongs to the given user.
func (b *Box) IsOwnedBy(userID uint) bool {
	return b.UserID == userID
}

// ItemCount returns the number of distinct items in the box.
// Items must have been loaded.
func (b *Box) ItemCount() int {
	return len(b.Items)
}

// TotalValue sums value*quantity over the box's items.
func (b *Box) TotalValue() float64 {
	var total float64
	for i := range b.Items {
		total += b.Items[i].TotalValue()
	}
	return total
}

// TotalItems sums quantities, so "Screws x100" and "Nails x50" give 150.
func (b *Box) TotalItems() int {
	var total int
	for _, item := range b.Items {
		total += item.Quantity
	}
	return total
}

// Categories returns the sorted, distinct, non-empty categories of the box's items.
func (b *Box) Categories() []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, item := range b.Items {
		if item.Category == "" {
			continue
		}
		if _, ok := seen[item.Category]; ok {
			continue
		}
		seen[item.Category] = struct{}{}
		categories = append(categories, item.Category)
	}
	sort.Strings(categories)
	return categories
}
