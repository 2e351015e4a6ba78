package contentrequests

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for content requests.
var (
	// ErrNotFound indicates the requested content request was not found.
	ErrNotFound = fmt.Errorf("content request %w", shared.ErrNotFound)
	// ErrClubNotFound indicates the target club is missing or inactive.
	ErrClubNotFound = fmt.Errorf("club %w", shared.ErrNotFound)
	// ErrForbidden indicates the principal may not act on the club.
	ErrForbidden = fmt.Errorf("content request: %w", shared.ErrForbidden)
	// ErrInvalidTransition indicates the request already left pending.
	ErrInvalidTransition = fmt.Errorf("content request not pending: %w", shared.ErrInvalidTransition)
	// ErrInvalidPayload indicates an empty or non-JSON payload.
	ErrInvalidPayload = fmt.Errorf("%w: event data must be a JSON document", shared.ErrValidation)
)
