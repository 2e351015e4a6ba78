// Package categories manages the event categories shown as filters and
// badges on the public site.
package categories

import "time"

// Category groups events.
type Category struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	ColorClass     string    `json:"color_class"`
	TextColorClass string    `json:"text_color_class"`
	Icon           string    `json:"icon"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateInput is the payload for a new category. Slug is derived from the
// name when empty.
type CreateInput struct {
	Name           string `json:"name" validate:"required,max=100"`
	Slug           string `json:"slug" validate:"max=120"`
	ColorClass     string `json:"color_class" validate:"max=100"`
	TextColorClass string `json:"text_color_class" validate:"max=100"`
	Icon           string `json:"icon" validate:"max=100"`
	Description    string `json:"description" validate:"max=2000"`
}

// UpdateInput is a partial update.
type UpdateInput struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=100"`
	Slug           *string `json:"slug" validate:"omitempty,max=120"`
	ColorClass     *string `json:"color_class" validate:"omitempty,max=100"`
	TextColorClass *string `json:"text_color_class" validate:"omitempty,max=100"`
	Icon           *string `json:"icon" validate:"omitempty,max=100"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	IsActive       *bool   `json:"is_active"`
}
