package forms

import (
	"fmt"

	"github.com/campusevents/campusevents/internal/shared"
)

// Domain errors for forms and applications.
var (
	ErrFormNotFound        = fmt.Errorf("form %w", shared.ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", shared.ErrNotFound)
	ErrClubNotFound        = fmt.Errorf("club %w", shared.ErrNotFound)
	ErrForbidden           = fmt.Errorf("forms: %w", shared.ErrForbidden)
	ErrInvalidTransition   = fmt.Errorf("application status change not allowed: %w", shared.ErrInvalidTransition)

	ErrInvalidForm    = fmt.Errorf("%w: invalid form", shared.ErrValidation)
	ErrInvalidAnswers = fmt.Errorf("%w: invalid answers", shared.ErrValidation)
	ErrInvalidStatus  = fmt.Errorf("%w: invalid application status", shared.ErrValidation)
)
