// Package stories holds the short-lived highlight cards shown above the
// event feed.
package stories

import "time"

// DefaultTTL is how long a story stays up when no expiry is given.
const DefaultTTL = 24 * time.Hour

// Story is a highlight card.
type Story struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	LinkURL    string    `json:"link_url"`
	OrderIndex int       `json:"order_index"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Live reports whether the story is shown at now.
func (s Story) Live(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// CreateInput is the payload for a new story.
type CreateInput struct {
	Title      string     `json:"title" validate:"required,max=200"`
	ImageURL   string     `json:"image_url" validate:"required,url"`
	LinkURL    string     `json:"link_url" validate:"omitempty,url"`
	OrderIndex int        `json:"order_index" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// UpdateInput is a partial update.
type UpdateInput struct {
	Title      *string    `json:"title" validate:"omitempty,min=1,max=200"`
	ImageURL   *string    `json:"image_url" validate:"omitempty,url"`
	LinkURL    *string    `json:"link_url" validate:"omitempty,url"`
	OrderIndex *int       `json:"order_index" validate:"omitempty,gte=0"`
	IsActive   *bool      `json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"`
}
