package events

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for events.
var (
	ErrNotFound        = fmt.Errorf("event %w", shared.ErrNotFound)
	ErrUnknownCategory = fmt.Errorf("%w: category does not exist", shared.ErrValidation)
	ErrEndsBeforeStart = fmt.Errorf("%w: ends_at must be after starts_at", shared.ErrValidation)
	ErrInvalidDraft    = fmt.Errorf("%w: event data is not a valid event", shared.ErrValidation)

	ErrAlreadyPublished = fmt.Errorf("content request already published: %w", shared.ErrConflict)
)
