package settings

import "context"

// Service reads and updates site settings.
type Service struct {
	repo Repository
}

// NewService creates a new service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the settings, creating the default document on first use.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.GetOrCreate(ctx, Defaults())
}

// Update applies a partial update to the stored document.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	in.apply(&current)
	return s.repo.Save(ctx, current)
}
