package workflow

import (
	"errors"
	"lrbs/src/types"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewValidationError("missing date")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(NewConflictError("slot taken")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(&AuthorizationError{RequiredRole: types.ROLE_HOD, Step: types.REQUEST_PENDING_FINAL_AUTHORITY}))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(&InvalidStateError{Op: "withdraw", Status: types.REQUEST_ISSUED}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestErrorMessagesNameTheProblem(t *testing.T) {
	authErr := &AuthorizationError{RequiredRole: types.ROLE_LAB_STAFF, Step: types.REQUEST_PENDING_RESOURCE_STAFF}
	assert.Contains(t, authErr.Error(), "lab_staff")
	assert.Contains(t, authErr.Error(), "pending_resource_staff")

	stateErr := &InvalidStateError{Op: "withdraw", Status: types.REQUEST_ISSUED}
	assert.Contains(t, stateErr.Error(), "withdraw")
	assert.Contains(t, stateErr.Error(), "issued")
}
