package clubs

import (
	"context"
	"errors"
	"strings"

	"github.com/campusevents/campusevents/internal/shared"
	"github.com/campusevents/campusevents/internal/users"
)

// UserDirectory confirms that roster additions reference real accounts.
type UserDirectory interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// Service implements club use cases.
type Service struct {
	repo  Repository
	users UserDirectory
}

// NewService creates a new service.
func NewService(repo Repository, users UserDirectory) *Service {
	return &Service{repo: repo, users: users}
}

// List returns a page of active clubs.
func (s *Service) List(ctx context.Context, page, perPage int) (shared.Page[Club], error) {
	meta := shared.NewPagination(page, perPage, 0)
	items, total, err := s.repo.List(ctx, meta.PerPage, meta.Offset())
	if err != nil {
		return shared.Page[Club]{}, err
	}
	return shared.Page[Club]{Items: items, Pagination: shared.NewPagination(meta.Page, meta.PerPage, total)}, nil
}

// Get returns an active club.
func (s *Service) Get(ctx context.Context, id int64) (Club, error) {
	club, err := s.repo.Get(ctx, id)
	if err != nil {
		return Club{}, err
	}
	if !club.IsActive {
		return Club{}, ErrNotFound
	}
	return club, nil
}

// ClubActive reports whether the club exists and is active. A missing club
// is not an error.
func (s *Service) ClubActive(ctx context.Context, id int64) (bool, error) {
	club, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return club.IsActive, nil
}

// Create registers a new active club.
func (s *Service) Create(ctx context.Context, in CreateInput) (Club, error) {
	return s.repo.Create(ctx, Club{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Logo:        in.Logo,
		ContactInfo: in.ContactInfo,
		IsActive:    true,
	})
}

// Update applies a partial update. Inactive clubs can be updated, which is
// how they are reactivated.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Club, error) {
	club, err := s.repo.Get(ctx, id)
	if err != nil {
		return Club{}, err
	}
	if in.Name != nil {
		club.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		club.Description = *in.Description
	}
	if in.Logo != nil {
		club.Logo = *in.Logo
	}
	if in.ContactInfo != nil {
		club.ContactInfo = *in.ContactInfo
	}
	if in.IsActive != nil {
		club.IsActive = *in.IsActive
	}
	return s.repo.Update(ctx, club)
}

// Delete deactivates the club. Rows referenced by content requests and
// grants stay in place.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

// AddMember puts a user on the club roster.
func (s *Service) AddMember(ctx context.Context, clubID int64, in AddMemberInput) (Member, error) {
	role := in.Role
	if role == "" {
		role = MemberRoleMember
	}
	if !role.IsValid() {
		return Member{}, ErrInvalidMemberRole
	}
	if _, err := s.Get(ctx, clubID); err != nil {
		return Member{}, err
	}
	if s.users != nil {
		if _, err := s.users.Get(ctx, in.UserID); err != nil {
			return Member{}, err
		}
	}
	return s.repo.AddMember(ctx, Member{ClubID: clubID, UserID: in.UserID, Role: role})
}

// RemoveMember takes a user off the roster.
func (s *Service) RemoveMember(ctx context.Context, clubID, userID int64) error {
	removed, err := s.repo.RemoveMember(ctx, clubID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMemberNotFound
	}
	return nil
}

// ListMembers returns the roster of an existing club.
func (s *Service) ListMembers(ctx context.Context, clubID int64) ([]Member, error) {
	if _, err := s.repo.Get(ctx, clubID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, clubID)
}
