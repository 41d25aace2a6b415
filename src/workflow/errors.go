package workflow

import (
	"errors"
	"fmt"
	"lrbs/src/types"
	"net/http"
)

// ValidationError flags a malformed or incomplete request body. Never
// worth retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError covers both slot overlaps and a lost optimistic status
// check. Safe to retry after re-reading state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// AuthorizationError names the role the current step actually requires,
// or carries an explicit message for ownership checks.
type AuthorizationError struct {
	RequiredRole types.Role
	Step         types.RequestStatus
	Message      string
}

func (e *AuthorizationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("step %s requires role %s", e.Step, e.RequiredRole)
}

// InvalidStateError names the status that made the operation illegal.
type InvalidStateError struct {
	Op     string
	Status types.RequestStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s while request is %s", e.Op, e.Status)
}

// HTTPStatus maps a workflow error onto the response code the handlers
// return. Anything unrecognized is a 500.
func HTTPStatus(err error) int {
	var ve *ValidationError
	var ce *ConflictError
	var ae *AuthorizationError
	var ie *InvalidStateError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusConflict
	case errors.As(err, &ae):
		return http.StatusForbidden
	case errors.As(err, &ie):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
