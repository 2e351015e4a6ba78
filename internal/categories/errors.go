package categories

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for categories.
var (
	ErrNotFound  = fmt.Errorf("category %w", shared.ErrNotFound)
	ErrSlugTaken = fmt.Errorf("category slug already used: %w", shared.ErrConflict)
	ErrEmptySlug = fmt.Errorf("%w: name yields an empty slug", shared.ErrValidation)
	ErrInUse     = fmt.Errorf("category has events: %w", shared.ErrConflict)
)
