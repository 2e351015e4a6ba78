// Package auth verifies credentials, issues bearer tokens and resolves the
// principal of each request.
package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusevents/campusevents/internal/rbac"
	"github.com/campusevents/campusevents/internal/roles"
	"github.com/campusevents/campusevents/internal/shared"
	"github.com/campusevents/campusevents/internal/users"
)

// UserDirectory looks up accounts.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// RoleSource lists the grants of a user.
type RoleSource interface {
	RolesFor(ctx context.Context, userID int64) ([]roles.Grant, error)
}

// Service wraps authentication business rules.
type Service struct {
	users  UserDirectory
	roles  RoleSource
	tokens *TokenIssuer
}

// NewService constructs a new Service.
func NewService(users UserDirectory, roles RoleSource, tokens *TokenIssuer) *Service {
	return &Service{users: users, roles: roles, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return users.User{}, shared.ErrInvalidCredentials
		}
		return users.User{}, err
	}
	if !user.IsActive {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, err
	}
	return s.tokens.Issue(user.ID)
}

// Resolve turns a bearer token into a principal with its current grants.
func (s *Service) Resolve(ctx context.Context, token string) (rbac.Principal, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return rbac.Principal{}, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return rbac.Principal{}, fmt.Errorf("%w: unknown user", shared.ErrUnauthorized)
		}
		return rbac.Principal{}, err
	}
	if !user.IsActive {
		return rbac.Principal{}, fmt.Errorf("%w: account disabled", shared.ErrUnauthorized)
	}
	grants, err := s.roles.RolesFor(ctx, user.ID)
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("load roles: %w", err)
	}
	return rbac.Principal{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.FullName,
		Grants:      grants,
	}, nil
}
