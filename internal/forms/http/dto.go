package http

import "github.com/campusevents/campusevents/internal/forms"

// FormRequest is the body of a form update.
type FormRequest struct {
	Name        string        `json:"name" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Fields      []forms.Field `json:"fields_json" validate:"required,min=1,dive"`
	IsActive    bool          `json:"is_active"`
}

func (r FormRequest) definition() forms.Definition {
	return forms.Definition{
		Name:        r.Name,
		Description: r.Description,
		Fields:      r.Fields,
		IsActive:    r.IsActive,
	}
}

// CreateFormRequest is the body of a form creation.
type CreateFormRequest struct {
	ClubID int64 `json:"club_id" validate:"required,gt=0"`
	FormRequest
}

// ApplyRequest carries the answers to a form.
type ApplyRequest struct {
	Data map[string]any `json:"data_json" validate:"required"`
}

// StatusRequest moves an application along the review workflow.
type StatusRequest struct {
	Status forms.Status `json:"status" validate:"required,oneof=under_review accepted rejected"`
}
