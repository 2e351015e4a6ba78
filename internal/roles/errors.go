package roles

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for role grants.
var (
	ErrGrantNotFound  = fmt.Errorf("role grant %w", shared.ErrNotFound)
	ErrDuplicateGrant = fmt.Errorf("role already granted: %w", shared.ErrConflict)
	ErrClubNotFound   = fmt.Errorf("club %w", shared.ErrNotFound)
	ErrLastSuperAdmin = fmt.Errorf("cannot revoke the last super_admin: %w", shared.ErrConflict)

	ErrUnknownKind         = fmt.Errorf("%w: unknown role kind", shared.ErrInvalidGrant)
	ErrClubScopeRequired   = fmt.Errorf("%w: club_manager requires a club", shared.ErrInvalidGrant)
	ErrClubScopeNotAllowed = fmt.Errorf("%w: only club_manager may be scoped to a club", shared.ErrInvalidGrant)
)
