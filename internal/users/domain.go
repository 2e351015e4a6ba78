// Package users is the principal directory: accounts, profiles and
// credentials.
package users

import (
	"fmt"
	"time"

	"github.com/campusevents/campusevents/internal/shared"
)

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput describes a new account.
type CreateInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	FullName string `json:"full_name" validate:"max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Domain errors for users.
var (
	ErrNotFound   = fmt.Errorf("user %w", shared.ErrNotFound)
	ErrEmailTaken = fmt.Errorf("email already registered: %w", shared.ErrConflict)
)
