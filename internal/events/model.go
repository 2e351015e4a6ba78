// Package events is the public event catalogue: listing, featured events,
// calendar exports and the admin tools that maintain it.
package events

import "time"

// Event is a published campus event.
type Event struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	StartsAt             time.Time  `json:"starts_at"`
	EndsAt               *time.Time `json:"ends_at,omitempty"`
	Location             string     `json:"location"`
	Organizer            string     `json:"organizer"`
	ImageURL             string     `json:"image_url"`
	Latitude             *float64   `json:"latitude,omitempty"`
	Longitude            *float64   `json:"longitude,omitempty"`
	Address              string     `json:"address"`
	RequiresRegistration bool       `json:"requires_registration"`
	RegistrationLink     string     `json:"registration_link"`
	CategoryID           int64      `json:"category_id"`
	ClubID               *int64     `json:"club_id,omitempty"`
	SourceRequestID      *int64     `json:"source_request_id,omitempty"`
	IsActive             bool       `json:"is_active"`
	IsFeatured           bool       `json:"is_featured"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Venue returns the most precise place description available.
func (e Event) Venue() string {
	if e.Address != "" {
		return e.Address
	}
	return e.Location
}

// Filter narrows an event listing.
type Filter struct {
	CategoryID *int64
	ClubID     *int64
	Search     string
	ActiveOnly bool
	Featured   *bool
	Page       int
	Limit      int
}

// Draft is the editable part of an event. It is both the admin create
// payload and the event_data carried by approved content requests.
type Draft struct {
	Title                string     `json:"title" validate:"required,max=200"`
	Description          string     `json:"description" validate:"max=10000"`
	StartsAt             time.Time  `json:"starts_at" validate:"required"`
	EndsAt               *time.Time `json:"ends_at"`
	Location             string     `json:"location" validate:"max=300"`
	Organizer            string     `json:"organizer" validate:"max=200"`
	ImageURL             string     `json:"image_url" validate:"omitempty,url"`
	Latitude             *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude            *float64   `json:"longitude" validate:"omitempty,longitude"`
	Address              string     `json:"address" validate:"max=500"`
	RequiresRegistration bool       `json:"requires_registration"`
	RegistrationLink     string     `json:"registration_link" validate:"omitempty,url"`
	CategoryID           int64      `json:"category_id" validate:"required,gt=0"`
	IsFeatured           bool       `json:"is_featured"`
}

// UpdateInput is a partial update.
type UpdateInput struct {
	Title                *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description          *string    `json:"description" validate:"omitempty,max=10000"`
	StartsAt             *time.Time `json:"starts_at"`
	EndsAt               *time.Time `json:"ends_at"`
	Location             *string    `json:"location" validate:"omitempty,max=300"`
	Organizer            *string    `json:"organizer" validate:"omitempty,max=200"`
	ImageURL             *string    `json:"image_url" validate:"omitempty,url"`
	Latitude             *float64   `json:"latitude" validate:"omitempty,latitude"`
	Longitude            *float64   `json:"longitude" validate:"omitempty,longitude"`
	Address              *string    `json:"address" validate:"omitempty,max=500"`
	RequiresRegistration *bool      `json:"requires_registration"`
	RegistrationLink     *string    `json:"registration_link" validate:"omitempty,url"`
	CategoryID           *int64     `json:"category_id" validate:"omitempty,gt=0"`
	IsActive             *bool      `json:"is_active"`
	IsFeatured           *bool      `json:"is_featured"`
}

func (d Draft) event(clubID *int64) Event {
	return Event{
		Title:                d.Title,
		Description:          d.Description,
		StartsAt:             d.StartsAt,
		EndsAt:               d.EndsAt,
		Location:             d.Location,
		Organizer:            d.Organizer,
		ImageURL:             d.ImageURL,
		Latitude:             d.Latitude,
		Longitude:            d.Longitude,
		Address:              d.Address,
		RequiresRegistration: d.RequiresRegistration,
		RegistrationLink:     d.RegistrationLink,
		CategoryID:           d.CategoryID,
		ClubID:               clubID,
		IsActive:             true,
		IsFeatured:           d.IsFeatured,
	}
}

func (in UpdateInput) apply(e *Event) {
	if in.Title != nil {
		e.Title = *in.Title
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.StartsAt != nil {
		e.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		e.EndsAt = in.EndsAt
	}
	if in.Location != nil {
		e.Location = *in.Location
	}
	if in.Organizer != nil {
		e.Organizer = *in.Organizer
	}
	if in.ImageURL != nil {
		e.ImageURL = *in.ImageURL
	}
	if in.Latitude != nil {
		e.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		e.Longitude = in.Longitude
	}
	if in.Address != nil {
		e.Address = *in.Address
	}
	if in.RequiresRegistration != nil {
		e.RequiresRegistration = *in.RequiresRegistration
	}
	if in.RegistrationLink != nil {
		e.RegistrationLink = *in.RegistrationLink
	}
	if in.CategoryID != nil {
		e.CategoryID = *in.CategoryID
	}
	if in.IsActive != nil {
		e.IsActive = *in.IsActive
	}
	if in.IsFeatured != nil {
		e.IsFeatured = *in.IsFeatured
	}
}
