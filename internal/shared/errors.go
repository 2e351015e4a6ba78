package shared

import "errors"

// Error kinds returned by the domain packages. Callers classify failures with
// errors.Is; domain packages wrap these with more specific messages.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates the principal lacks authority for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized indicates a missing or invalid principal.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidGrant indicates a role grant whose scope does not match its kind.
	ErrInvalidGrant = errors.New("invalid role grant")
	// ErrInvalidTransition indicates a lifecycle transition from a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
