package users

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
	cost int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// GetByEmail returns a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// List returns a page of users.
func (s *Service) List(ctx context.Context, page, perPage int) (shared.Page[User], error) {
	meta := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, meta.PerPage, meta.Offset())
	if err != nil {
		return shared.Page[User]{}, err
	}
	return shared.Page[User]{Items: items, Pagination: shared.NewPagination(meta.Page, meta.PerPage, total)}, nil
}

// Create registers an account with a bcrypt hashed password.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: email and a password of 8+ characters required", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: string(hash),
		IsActive:     true,
	})
}
