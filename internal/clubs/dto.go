package clubs

// CreateInput is the payload for a new club.
type CreateInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Logo        string `json:"logo" validate:"omitempty,url"`
	ContactInfo string `json:"contact_info" validate:"max=500"`
}

// UpdateInput is a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Logo        *string `json:"logo" validate:"omitempty,url"`
	ContactInfo *string `json:"contact_info" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// AddMemberInput adds a user to the roster.
type AddMemberInput struct {
	UserID int64      `json:"user_id" validate:"required,gt=0"`
	Role   MemberRole `json:"role" validate:"omitempty,oneof=member officer president"`
}
