// Package forms lets clubs publish application forms and review the
// applications students submit through them.
package forms

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// FieldType is the closed set of input kinds a form may declare.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
)

// IsValid checks if the field type is known.
func (t FieldType) IsValid() bool {
	switch t {
	case FieldText, FieldEmail, FieldTextarea, FieldNumber, FieldDate, FieldSelect, FieldRadio, FieldCheckbox:
		return true
	default:
		return false
	}
}

// NeedsOptions reports whether answers are picked from a fixed list.
func (t FieldType) NeedsOptions() bool {
	return t == FieldSelect || t == FieldRadio
}

// Field describes one input of a form.
type Field struct {
	Name        string    `json:"name" validate:"required,max=64"`
	Label       string    `json:"label" validate:"required,max=200"`
	Type        FieldType `json:"type" validate:"required"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
}

// Form is a club owned questionnaire.
type Form struct {
	ID          int64     `json:"id"`
	ClubID      int64     `json:"club_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Fields      []Field   `json:"fields_json"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwningClubID returns the club the form belongs to.
func (f Form) OwningClubID() int64 {
	return f.ClubID
}

// ValidateFields checks a form definition: at least one field, unique
// names, known types and options where the type needs them.
func ValidateFields(fields []Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: at least one field is required", ErrInvalidForm)
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			return fmt.Errorf("%w: field name is required", ErrInvalidForm)
		}
		if seen[name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidForm, name)
		}
		seen[name] = true
		if !f.Type.IsValid() {
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidForm, name, f.Type)
		}
		if f.Type.NeedsOptions() && len(f.Options) == 0 {
			return fmt.Errorf("%w: field %q needs options", ErrInvalidForm, name)
		}
	}
	return nil
}

// Check validates submitted answers against the form definition. Unknown
// keys are rejected.
func (f Form) Check(data map[string]any) error {
	known := make(map[string]Field, len(f.Fields))
	for _, field := range f.Fields {
		known[field.Name] = field
	}
	for key := range data {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidAnswers, key)
		}
	}
	for _, field := range f.Fields {
		v, ok := data[field.Name]
		if !ok || v == nil || v == "" {
			if field.Required {
				return fmt.Errorf("%w: %s is required", ErrInvalidAnswers, field.Name)
			}
			continue
		}
		if err := field.check(v); err != nil {
			return fmt.Errorf("%w: %s %v", ErrInvalidAnswers, field.Name, err)
		}
	}
	return nil
}

func (f Field) check(v any) error {
	switch f.Type {
	case FieldNumber:
		if _, ok := v.(float64); !ok {
			return errors.New("must be a number")
		}
		return nil
	case FieldCheckbox:
		if _, ok := v.(bool); ok && len(f.Options) == 0 {
			return nil
		}
		picked, ok := v.([]any)
		if !ok || len(f.Options) == 0 {
			return errors.New("must be a list of options")
		}
		for _, p := range picked {
			s, ok := p.(string)
			if !ok || !slices.Contains(f.Options, s) {
				return fmt.Errorf("has unknown option %v", p)
			}
		}
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return errors.New("must be a string")
	}
	switch f.Type {
	case FieldEmail:
		if at := strings.Index(s, "@"); at <= 0 || at == len(s)-1 {
			return errors.New("must be an email address")
		}
	case FieldDate:
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return errors.New("must be a YYYY-MM-DD date")
		}
	case FieldSelect, FieldRadio:
		if !slices.Contains(f.Options, s) {
			return fmt.Errorf("has unknown option %q", s)
		}
	}
	return nil
}

// Status represents the lifecycle of an application.
type Status string

const (
	StatusSubmitted   Status = "submitted"    // Awaiting a club manager
	StatusUnderReview Status = "under_review" // Picked up by a club manager
	StatusAccepted    Status = "accepted"     // Terminal
	StatusRejected    Status = "rejected"     // Terminal
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanMoveTo reports whether next follows s in the workflow.
func (s Status) CanMoveTo(next Status) bool {
	switch s {
	case StatusSubmitted:
		return next == StatusUnderReview || next == StatusAccepted || next == StatusRejected
	case StatusUnderReview:
		return next == StatusAccepted || next == StatusRejected
	default:
		return false
	}
}

// Application is one user's answers to a form.
type Application struct {
	ID          int64          `json:"id"`
	FormID      int64          `json:"form_id"`
	ClubID      int64          `json:"club_id"`
	UserID      int64          `json:"user_id"`
	Status      Status         `json:"status"`
	Data        map[string]any `json:"data_json"`
	SubmittedAt time.Time      `json:"submitted_at"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty"`
	ReviewerID  *int64         `json:"reviewer_id,omitempty"`
}

// OwningClubID returns the club whose form the application answers.
func (a Application) OwningClubID() int64 {
	return a.ClubID
}

// Apply builds a new submitted application stamped with now.
func Apply(form Form, userID int64, data map[string]any, now time.Time) Application {
	return Application{
		FormID:      form.ID,
		ClubID:      form.ClubID,
		UserID:      userID,
		Status:      StatusSubmitted,
		Data:        data,
		SubmittedAt: now.UTC(),
	}
}

// MoveTo returns the application advanced to next by reviewerID.
func (a Application) MoveTo(next Status, reviewerID int64, now time.Time) (Application, error) {
	if !next.IsValid() {
		return a, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, next)
	}
	if !a.Status.CanMoveTo(next) {
		return a, fmt.Errorf("%w: application %d is %s", ErrInvalidTransition, a.ID, a.Status)
	}
	at := now.UTC()
	reviewer := reviewerID
	a.Status = next
	a.ReviewedAt = &at
	a.ReviewerID = &reviewer
	return a, nil
}
