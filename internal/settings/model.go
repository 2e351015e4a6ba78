// Package settings stores the single site-wide settings document: about
// text, contact details, FAQ and the club onboarding steps.
package settings

import "time"

// FAQ is one question on the about page.
type FAQ struct {
	Question string `json:"question" validate:"required,max=500"`
	Answer   string `json:"answer" validate:"required,max=5000"`
}

// Feature is a highlighted capability on the landing page.
type Feature struct {
	Icon        string `json:"icon" validate:"max=100"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// ClubInfoStep is one step of the "start a club" guide.
type ClubInfoStep struct {
	Step        int    `json:"step" validate:"gte=1"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// Settings is the site settings singleton.
type Settings struct {
	SiteName      string         `json:"site_name"`
	AboutContent  string         `json:"about_content"`
	ContactEmail  string         `json:"contact_email"`
	ContactPhone  string         `json:"contact_phone"`
	Mission       string         `json:"mission"`
	Vision        string         `json:"vision"`
	FAQs          []FAQ          `json:"faqs"`
	Features      []Feature      `json:"features"`
	ClubInfoSteps []ClubInfoStep `json:"club_info_steps"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DefaultSiteName is used until an admin names the site.
const DefaultSiteName = "Campus Events"

// Defaults returns the document created on first read.
func Defaults() Settings {
	return Settings{
		SiteName:      DefaultSiteName,
		FAQs:          []FAQ{},
		Features:      []Feature{},
		ClubInfoSteps: []ClubInfoStep{},
	}
}

// UpdateInput is a partial update. A non-nil list replaces the stored one.
type UpdateInput struct {
	SiteName      *string         `json:"site_name" validate:"omitempty,min=1,max=200"`
	AboutContent  *string         `json:"about_content" validate:"omitempty,max=20000"`
	ContactEmail  *string         `json:"contact_email" validate:"omitempty,email"`
	ContactPhone  *string         `json:"contact_phone" validate:"omitempty,max=50"`
	Mission       *string         `json:"mission" validate:"omitempty,max=5000"`
	Vision        *string         `json:"vision" validate:"omitempty,max=5000"`
	FAQs          *[]FAQ          `json:"faqs" validate:"omitempty,dive"`
	Features      *[]Feature      `json:"features" validate:"omitempty,dive"`
	ClubInfoSteps *[]ClubInfoStep `json:"club_info_steps" validate:"omitempty,dive"`
}

func (in UpdateInput) apply(s *Settings) {
	if in.SiteName != nil {
		s.SiteName = *in.SiteName
	}
	if in.AboutContent != nil {
		s.AboutContent = *in.AboutContent
	}
	if in.ContactEmail != nil {
		s.ContactEmail = *in.ContactEmail
	}
	if in.ContactPhone != nil {
		s.ContactPhone = *in.ContactPhone
	}
	if in.Mission != nil {
		s.Mission = *in.Mission
	}
	if in.Vision != nil {
		s.Vision = *in.Vision
	}
	if in.FAQs != nil {
		s.FAQs = *in.FAQs
	}
	if in.Features != nil {
		s.Features = *in.Features
	}
	if in.ClubInfoSteps != nil {
		s.ClubInfoSteps = *in.ClubInfoSteps
	}
}
