package stories

import (
	"context"
	"strings"
	"time"
)

// Service implements story use cases.
type Service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewService creates a new service. A non-positive ttl falls back to
// DefaultTTL.
func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: repo, ttl: ttl, now: time.Now}
}

// List returns live stories, or every story when liveOnly is false.
func (s *Service) List(ctx context.Context, liveOnly bool) ([]Story, error) {
	if !liveOnly {
		return s.repo.List(ctx, nil)
	}
	now := s.now()
	return s.repo.List(ctx, &now)
}

// Get loads one story.
func (s *Service) Get(ctx context.Context, id int64) (Story, error) {
	return s.repo.Get(ctx, id)
}

// Create stores an active story expiring after the configured TTL unless
// an explicit expiry is given.
func (s *Service) Create(ctx context.Context, in CreateInput) (Story, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(now) {
			return Story{}, ErrExpiryInPast
		}
		expires = *in.ExpiresAt
	}
	return s.repo.Create(ctx, Story{
		Title:      strings.TrimSpace(in.Title),
		ImageURL:   in.ImageURL,
		LinkURL:    in.LinkURL,
		OrderIndex: in.OrderIndex,
		IsActive:   true,
		CreatedAt:  now,
		ExpiresAt:  expires,
	})
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Story, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Story{}, err
	}
	if in.Title != nil {
		st.Title = strings.TrimSpace(*in.Title)
	}
	if in.ImageURL != nil {
		st.ImageURL = *in.ImageURL
	}
	if in.LinkURL != nil {
		st.LinkURL = *in.LinkURL
	}
	if in.OrderIndex != nil {
		st.OrderIndex = *in.OrderIndex
	}
	if in.IsActive != nil {
		st.IsActive = *in.IsActive
	}
	if in.ExpiresAt != nil {
		if !in.ExpiresAt.After(s.now()) {
			return Story{}, ErrExpiryInPast
		}
		st.ExpiresAt = *in.ExpiresAt
	}
	return s.repo.Update(ctx, st)
}

// SetImage points the story at a freshly uploaded image and returns the URL
// it replaced.
func (s *Service) SetImage(ctx context.Context, id int64, url string) (Story, string, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Story{}, "", err
	}
	previous := st.ImageURL
	st.ImageURL = url
	updated, err := s.repo.Update(ctx, st)
	if err != nil {
		return Story{}, "", err
	}
	return updated, previous, nil
}

// Delete removes a story.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ExpireStale deactivates every active story past its expiry and returns
// how many were switched off.
func (s *Service) ExpireStale(ctx context.Context) (int64, error) {
	return s.repo.DeactivateExpired(ctx, s.now())
}
