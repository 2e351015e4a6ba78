package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/shared"
)

// ClubDirectory answers whether a club exists and accepts new activity.
type ClubDirectory interface {
	ClubActive(ctx context.Context, clubID int64) (bool, error)
}

// Definition carries the editable parts of a form.
type Definition struct {
	Name        string
	Description string
	Fields      []Field
	IsActive    bool
}

func (d Definition) check() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidForm)
	}
	return ValidateFields(d.Fields)
}

// Service authorizes and runs form and application operations.
type Service struct {
	repo  Repository
	clubs ClubDirectory
	now   func() time.Time
}

// NewService creates a new service.
func NewService(repo Repository, clubs ClubDirectory) *Service {
	return &Service{repo: repo, clubs: clubs, now: time.Now}
}

// CreateForm adds a form to a club the principal manages.
func (s *Service) CreateForm(ctx context.Context, p rbac.Principal, clubID int64, d Definition) (Form, error) {
	if !rbac.CanManageClub(p.Grants, clubID) {
		return Form{}, ErrForbidden
	}
	if err := d.check(); err != nil {
		return Form{}, err
	}
	active, err := s.clubs.ClubActive(ctx, clubID)
	if err != nil {
		return Form{}, fmt.Errorf("lookup club: %w", err)
	}
	if !active {
		return Form{}, ErrClubNotFound
	}
	return s.repo.InsertForm(ctx, Form{
		ClubID:      clubID,
		Name:        strings.TrimSpace(d.Name),
		Description: d.Description,
		Fields:      d.Fields,
		IsActive:    d.IsActive,
	})
}

// UpdateForm replaces the definition of a form.
func (s *Service) UpdateForm(ctx context.Context, p rbac.Principal, id int64, d Definition) (Form, error) {
	current, err := s.managedForm(ctx, p, id)
	if err != nil {
		return Form{}, err
	}
	if err := d.check(); err != nil {
		return Form{}, err
	}
	current.Name = strings.TrimSpace(d.Name)
	current.Description = d.Description
	current.Fields = d.Fields
	current.IsActive = d.IsActive
	return s.repo.UpdateForm(ctx, current)
}

// DeleteForm removes a form and every application made through it.
func (s *Service) DeleteForm(ctx context.Context, p rbac.Principal, id int64) error {
	if _, err := s.managedForm(ctx, p, id); err != nil {
		return err
	}
	return s.repo.DeleteForm(ctx, id)
}

func (s *Service) managedForm(ctx context.Context, p rbac.Principal, id int64) (Form, error) {
	form, err := s.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}
	if !rbac.CanManageClub(p.Grants, form.ClubID) {
		return Form{}, ErrForbidden
	}
	return form, nil
}

// GetForm returns a form. Inactive forms are only visible to its managers.
func (s *Service) GetForm(ctx context.Context, p rbac.Principal, id int64) (Form, error) {
	form, err := s.repo.GetForm(ctx, id)
	if err != nil {
		return Form{}, err
	}
	if !form.IsActive && !rbac.CanManageClub(p.Grants, form.ClubID) {
		return Form{}, ErrFormNotFound
	}
	return form, nil
}

// ListClubForms pages through a club's forms. Managers also see drafts.
func (s *Service) ListClubForms(ctx context.Context, p rbac.Principal, clubID int64, page, perPage int) (shared.Page[Form], error) {
	activeOnly := !rbac.CanManageClub(p.Grants, clubID)
	meta := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListForms(ctx, clubID, activeOnly, meta.PerPage, meta.Offset())
	if err != nil {
		return shared.Page[Form]{}, err
	}
	return shared.Page[Form]{
		Items:      items,
		Pagination: shared.NewPagination(meta.Page, meta.PerPage, total),
	}, nil
}

// Submit files the principal's answers to an active form.
func (s *Service) Submit(ctx context.Context, p rbac.Principal, formID int64, data map[string]any) (Application, error) {
	form, err := s.repo.GetForm(ctx, formID)
	if err != nil {
		return Application{}, err
	}
	if !form.IsActive {
		return Application{}, ErrFormNotFound
	}
	if err := form.Check(data); err != nil {
		return Application{}, err
	}
	return s.repo.InsertApplication(ctx, Apply(form, p.ID, data, s.now()))
}

// ListApplications pages through the applications of a form the principal
// manages.
func (s *Service) ListApplications(ctx context.Context, p rbac.Principal, formID int64, page, perPage int) (shared.Page[Application], error) {
	if _, err := s.managedForm(ctx, p, formID); err != nil {
		return shared.Page[Application]{}, err
	}
	meta := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.ListApplications(ctx, formID, meta.PerPage, meta.Offset())
	if err != nil {
		return shared.Page[Application]{}, err
	}
	return shared.Page[Application]{
		Items:      items,
		Pagination: shared.NewPagination(meta.Page, meta.PerPage, total),
	}, nil
}

// ListMine returns the principal's own applications.
func (s *Service) ListMine(ctx context.Context, p rbac.Principal) ([]Application, error) {
	return s.repo.ListByUser(ctx, p.ID)
}

// GetApplication returns an application to its submitter or a club manager.
func (s *Service) GetApplication(ctx context.Context, p rbac.Principal, id int64) (Application, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.UserID != p.ID && !rbac.CanManageClub(p.Grants, app.ClubID) {
		return Application{}, ErrForbidden
	}
	return app, nil
}

// SetStatus moves an application along the review workflow.
func (s *Service) SetStatus(ctx context.Context, p rbac.Principal, id int64, next Status) (Application, error) {
	current, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !rbac.CanManageClub(p.Grants, current.ClubID) {
		return Application{}, ErrForbidden
	}
	moved, err := current.MoveTo(next, p.ID, s.now())
	if err != nil {
		return Application{}, err
	}
	return s.repo.Transition(ctx, moved, current.Status)
}

// History returns the review trail of an application.
func (s *Service) History(ctx context.Context, p rbac.Principal, id int64) ([]shared.ApprovalLog, error) {
	if _, err := s.GetApplication(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}
