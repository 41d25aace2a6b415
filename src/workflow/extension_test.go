package workflow

import (
	"lrbs/src/db"
	"lrbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestRequestExtensionOnlyWhileIssued(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "kind", "status"}).
		AddRow(9, 1, string(types.REQUEST_COMPONENT_LOAN), string(types.REQUEST_APPROVED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := RequestExtension(9, 1, &types.ExtensionRequestBody{
		NewDueDate: "2025-03-01",
		Reason:     "project overran",
	})
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.Equal(t, types.REQUEST_APPROVED, ise.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestExtensionRejectsSecondOpenOne(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "kind", "status"}).
		AddRow(9, 1, string(types.REQUEST_COMPONENT_LOAN), string(types.REQUEST_ISSUED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "extension_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := RequestExtension(9, 1, &types.ExtensionRequestBody{
		NewDueDate: "2025-03-01",
	})
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestExtensionRequiresOwnership(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "kind", "status"}).
		AddRow(9, 1, string(types.REQUEST_COMPONENT_LOAN), string(types.REQUEST_ISSUED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := RequestExtension(9, 77, &types.ExtensionRequestBody{
		NewDueDate: "2025-03-01",
	})
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideExtensionRequiresStaffRole(t *testing.T) {
	_, err := DecideExtension(9, 2, types.ROLE_STUDENT, true, "")
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, types.ROLE_LAB_STAFF, ae.RequiredRole)
}

func TestDecideExtensionWithoutOpenOne(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "kind", "status"}).
		AddRow(9, string(types.REQUEST_COMPONENT_LOAN), string(types.REQUEST_ISSUED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectQuery(`SELECT \* FROM "extension_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := DecideExtension(9, 2, types.ROLE_LAB_STAFF, true, "")
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.NoError(t, mock.ExpectationsWereMet())
}
