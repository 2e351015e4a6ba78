package categories

import (
	"context"
	"errors"
	"strings"
)

// Service implements category use cases.
type Service struct {
	repo Repository
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns categories ordered by name.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Category, error) {
	return s.repo.List(ctx, activeOnly)
}

// Get loads one category.
func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	return s.repo.Get(ctx, id)
}

// Exists reports whether the category is present. Events use it to
// validate their category reference.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create stores a category with a normalized slug.
func (s *Service) Create(ctx context.Context, in CreateInput) (Category, error) {
	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return Category{}, ErrEmptySlug
	}
	return s.repo.Create(ctx, Category{
		Name:           strings.TrimSpace(in.Name),
		Slug:           slug,
		ColorClass:     in.ColorClass,
		TextColorClass: in.TextColorClass,
		Icon:           in.Icon,
		Description:    in.Description,
		IsActive:       true,
	})
}

// Update applies a partial update. An explicit slug is normalized; renaming
// keeps the existing slug so links stay stable.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil {
		if c.Slug = Slugify(*in.Slug); c.Slug == "" {
			return Category{}, ErrEmptySlug
		}
	}
	if in.ColorClass != nil {
		c.ColorClass = *in.ColorClass
	}
	if in.TextColorClass != nil {
		c.TextColorClass = *in.TextColorClass
	}
	if in.Icon != nil {
		c.Icon = *in.Icon
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	return s.repo.Update(ctx, c)
}

// Toggle flips the active flag.
func (s *Service) Toggle(ctx context.Context, id int64) (Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Category{}, err
	}
	c.IsActive = !c.IsActive
	return s.repo.Update(ctx, c)
}

// Delete removes a category that no event references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
