package clubs

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for clubs.
var (
	ErrNotFound          = fmt.Errorf("club %w", shared.ErrNotFound)
	ErrNameTaken         = fmt.Errorf("club name already used: %w", shared.ErrConflict)
	ErrMemberNotFound    = fmt.Errorf("membership %w", shared.ErrNotFound)
	ErrAlreadyMember     = fmt.Errorf("user is already a member: %w", shared.ErrConflict)
	ErrInvalidMemberRole = fmt.Errorf("%w: unknown member role", shared.ErrValidation)
)
