package users

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusevents/campusevents/internal/shared"
)

type stubRepo struct {
	users []User
}

func (s *stubRepo) Get(_ context.Context, id int64) (User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *stubRepo) List(_ context.Context, limit, offset int) ([]User, int, error) {
	if offset >= len(s.users) {
		return []User{}, len(s.users), nil
	}
	end := offset + limit
	if end > len(s.users) {
		end = len(s.users)
	}
	return s.users[offset:end], len(s.users), nil
}

func (s *stubRepo) Create(_ context.Context, u User) (User, error) {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}
	u.ID = int64(len(s.users) + 1)
	s.users = append(s.users, u)
	return u, nil
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	svc.cost = bcrypt.MinCost

	u, err := svc.Create(context.Background(), CreateInput{Email: "  Ada@Campus.EDU ", FullName: "Ada", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@campus.edu", u.Email)
	assert.True(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct-horse")))

	_, err = svc.Create(context.Background(), CreateInput{Email: "ada@campus.edu", Password: "another-pass"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	found, err := svc.GetByEmail(context.Background(), "ADA@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)
}

func TestCreateRejectsShortPassword(t *testing.T) {
	svc := NewService(&stubRepo{})
	_, err := svc.Create(context.Background(), CreateInput{Email: "x@y.z", Password: "short"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListPaginates(t *testing.T) {
	repo := &stubRepo{users: []User{{ID: 1}, {ID: 2}, {ID: 3}}}
	page, err := NewService(repo).List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Pagination.Total)
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	raw, err := json.Marshal(User{ID: 1, Email: "a@b.c", PasswordHash: "secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
}
