// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/campusevents/campusevents/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidTransition):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, shared.ErrInvalidGrant):
		Problem(w, http.StatusBadRequest, "Invalid Grant", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// IsClientError reports whether err maps to a 4xx response.
func IsClientError(err error) bool {
	for _, kind := range []error{
		shared.ErrNotFound, shared.ErrConflict, shared.ErrInvalidTransition,
		shared.ErrInvalidGrant, shared.ErrValidation, shared.ErrForbidden,
		shared.ErrUnauthorized, shared.ErrInvalidCredentials,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// Fail responds with err, logging it first when it is a server-side failure.
func Fail(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if !IsClientError(err) && logger != nil {
		logger.Error(op, slog.Any("error", err))
	}
	RespondError(w, err)
}
