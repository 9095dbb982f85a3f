package handlers

import (
	"time"

	"garage/internal/models"
	"garage/internal/services"
)

// ItemResponse is an item with its derived total.
type ItemResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Category   string    `json:"category"`
	Notes      string    `json:"notes"`
	Value      float64   `json:"value"`
	TotalValue float64   `json:"total_value"`
	BoxID      uint      `json:"box_id"`
	BoxName    string    `json:"box_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BoxResponse is a box with display URLs and derived values. Items are only
// included on the detail view.
type BoxResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Location    string         `json:"location"`
	Description string         `json:"description"`
	ImageURL    string         `json:"image_url,omitempty"`
	QRCodeURL   string         `json:"qr_code_url,omitempty"`
	QRPayload   string         `json:"qr_payload"`
	UserID      uint           `json:"user_id"`
	ItemCount   int            `json:"item_count"`
	TotalItems  int            `json:"total_items"`
	TotalValue  float64        `json:"total_value"`
	Categories  []string       `json:"categories"`
	Items       []ItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func newItemResponse(item *models.Item) ItemResponse {
	resp := ItemResponse{
		ID:         item.ID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		Category:   item.Category,
		Notes:      item.Notes,
		Value:      item.Value,
		TotalValue: item.TotalValue(),
		BoxID:      item.BoxID,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
	if item.Box != nil {
		resp.BoxName = item.Box.Name
	}
	return resp
}

func newItemResponses(items []models.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	return out
}

func newBoxResponse(box *models.Box, displayURL func(string) string, withItems bool) BoxResponse {
	resp := BoxResponse{
		ID:          box.ID,
		Name:        box.Name,
		Location:    box.Location,
		Description: box.Description,
		QRPayload:   services.QRPayload(box.ID),
		UserID:      box.UserID,
		ItemCount:   box.ItemCount(),
		TotalItems:  box.TotalItems(),
		TotalValue:  box.TotalValue(),
		Categories:  box.Categories(),
		CreatedAt:   box.CreatedAt,
		UpdatedAt:   box.UpdatedAt,
	}
	if box.ImagePath != "" {
		resp.ImageURL = displayURL(box.ImagePath)
	}
	if box.QRCodePath != "" {
		resp.QRCodeURL = displayURL(box.QRCodePath)
	}
	if withItems {
		resp.Items = make([]ItemResponse, 0, len(box.Items))
		for i := range box.Items {
			item := box.Items[i]
			item.Box = box
			resp.Items = append(resp.Items, newItemResponse(&item))
		}
	}
	return resp
}

func newBoxResponses(boxes []models.Box, displayURL func(string) string) []BoxResponse {
	out := make([]BoxResponse, 0, len(boxes))
	for i := range boxes {
		out = append(out, newBoxResponse(&boxes[i], displayURL, false))
	}
	return out
}
