package models

import "time"

// Item is a quantified thing stored in a box. It has no owner of its own:
// ownership is always that of the parent box.
//
// Non-negative quantity and value are enforced by check constraints as well as by request validation.
type Item struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null;check:quantity >= 0"`
	Category  string    `json:"category" gorm:"size:50;index"`
	Notes     string    `json:"notes" gorm:"type:text"`
	Value     float64   `json:"value" gorm:"not null;check:value >= 0"` // per unit
	BoxID     uint      `json:"box_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Box *Box `json:"-" gorm:"foreignKey:BoxID"`
}

// TotalValue is the unit value times the quantity.
func (i *Item) TotalValue() float64 {
	return i.Value * float64(i.Quantity)
}

// IsOwnedBy delegates to the parent box. The box must have been loaded.
func (i *Item) IsOwnedBy(userID uint) bool {
	return i.Box != nil && i.Box.IsOwnedBy(userID)
}
