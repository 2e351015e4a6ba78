package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/campusevents/campusevents/internal/platform/cache"
	"github.com/campusevents/campusevents/internal/shared"
)

// CategoryChecker validates category references.
type CategoryChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service implements the event catalogue. Public reads go through a
// versioned Redis cache that every mutation invalidates.
type Service struct {
	repo       Repository
	categories CategoryChecker
	cache      *cache.Versioned
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewService creates a new service. feed may be nil to disable caching.
func NewService(repo Repository, categories CategoryChecker, feed *cache.Versioned, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, categories: categories, cache: feed, validate: validator.New(), logger: logger}
}

func filterKey(f Filter) []string {
	opt := func(v *int64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatInt(*v, 10)
	}
	featured := "-"
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	return []string{
		"list",
		"c" + opt(f.CategoryID),
		"k" + opt(f.ClubID),
		"f" + featured,
		"a" + strconv.FormatBool(f.ActiveOnly),
		"q" + f.Search,
		"p" + strconv.Itoa(f.Page),
		"l" + strconv.Itoa(f.Limit),
	}
}

// List returns a page of events ordered by start time.
func (s *Service) List(ctx context.Context, f Filter) (shared.Page[Event], error) {
	meta := shared.NewPagination(f.Page, f.Limit, 0)
	f.Page, f.Limit = meta.Page, meta.PerPage

	var page shared.Page[Event]
	err := s.cached(ctx, filterKey(f), &page, func(ctx context.Context) (any, error) {
		items, total, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		return shared.Page[Event]{Items: items, Pagination: shared.NewPagination(f.Page, f.Limit, total)}, nil
	})
	return page, err
}

// Featured returns active featured events.
func (s *Service) Featured(ctx context.Context) ([]Event, error) {
	featured := true
	var out []Event
	err := s.cached(ctx, []string{"featured"}, &out, func(ctx context.Context) (any, error) {
		items, _, err := s.repo.List(ctx, Filter{ActiveOnly: true, Featured: &featured})
		return items, err
	})
	return out, err
}

// Get loads one event.
func (s *Service) Get(ctx context.Context, id int64) (Event, error) {
	var e Event
	err := s.cached(ctx, []string{"event", strconv.FormatInt(id, 10)}, &e, func(ctx context.Context) (any, error) {
		return s.repo.Get(ctx, id)
	})
	return e, err
}

func (s *Service) cached(ctx context.Context, parts []string, dest any, loader func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("events cache key", slog.Any("error", err))
		return decodeInto(ctx, loader, dest)
	}
	return s.cache.FetchJSON(ctx, key, dest, loader)
}

func decodeInto(ctx context.Context, loader func(context.Context) (any, error), dest any) error {
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Create publishes an event from a draft.
func (s *Service) Create(ctx context.Context, d Draft) (Event, error) {
	return s.insert(ctx, d.event(nil))
}

// PublishDraft decodes content request event data and publishes it on
// behalf of the club. Publishing the same request twice returns the event
// created the first time.
func (s *Service) PublishDraft(ctx context.Context, requestID, clubID int64, payload json.RawMessage) (Event, error) {
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	if err := s.validate.Struct(d); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}
	e := d.event(&clubID)
	e.SourceRequestID = &requestID
	created, err := s.insert(ctx, e)
	if errors.Is(err, ErrAlreadyPublished) {
		return s.repo.GetBySource(ctx, requestID)
	}
	return created, err
}

func (s *Service) insert(ctx context.Context, e Event) (Event, error) {
	if err := s.check(ctx, e); err != nil {
		return Event{}, err
	}
	created, err := s.repo.Create(ctx, e)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	s.invalidate(ctx)
	return created, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Event, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	in.apply(&e)
	if err := s.check(ctx, e); err != nil {
		return Event{}, err
	}
	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return Event{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// SetImage points the event at a freshly uploaded image and returns the URL
// it replaced.
func (s *Service) SetImage(ctx context.Context, id int64, url string) (Event, string, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, "", err
	}
	previous := e.ImageURL
	e.ImageURL = url
	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return Event{}, "", err
	}
	s.invalidate(ctx)
	return updated, previous, nil
}

// ToggleFeatured flips the featured flag.
func (s *Service) ToggleFeatured(ctx context.Context, id int64) (Event, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return Event{}, err
	}
	e.IsFeatured = !e.IsFeatured
	updated, err := s.repo.Update(ctx, e)
	if err != nil {
		return Event{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes an event.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) check(ctx context.Context, e Event) error {
	if e.EndsAt != nil && !e.EndsAt.After(e.StartsAt) {
		return ErrEndsBeforeStart
	}
	if s.categories == nil {
		return nil
	}
	ok, err := s.categories.Exists(ctx, e.CategoryID)
	if err != nil {
		return fmt.Errorf("lookup category: %w", err)
	}
	if !ok {
		return ErrUnknownCategory
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("events cache bump", slog.Any("error", err))
	}
}
