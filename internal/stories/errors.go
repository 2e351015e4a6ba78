package stories

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for stories.
var (
	ErrNotFound     = fmt.Errorf("story %w", shared.ErrNotFound)
	ErrExpiryInPast = fmt.Errorf("%w: expires_at must be in the future", shared.ErrValidation)
)
