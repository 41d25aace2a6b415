package workflow

import (
	"lrbs/src/db"
	"lrbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSubmitValidatesBookingFields(t *testing.T) {
	db.GetMockDB()

	_, err := Submit(1, types.ROLE_STUDENT, &types.SubmitRequestBody{
		Kind:   string(types.REQUEST_BOOKING),
		LabIDs: []uint{7},
		Date:   "2025-01-10",
	})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = Submit(1, types.ROLE_STUDENT, &types.SubmitRequestBody{
		Kind:   string(types.REQUEST_BOOKING),
		LabIDs: []uint{7},
		Date:   "2025-01-10",
		Start:  "10:00",
		End:    "09:00",
	})
	assert.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "before")
}

func TestSubmitValidatesLoanFields(t *testing.T) {
	db.GetMockDB()

	_, err := Submit(1, types.ROLE_STUDENT, &types.SubmitRequestBody{
		Kind:   string(types.REQUEST_COMPONENT_LOAN),
		LabIDs: []uint{7},
	})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = Submit(1, types.ROLE_STUDENT, &types.SubmitRequestBody{
		Kind:    string(types.REQUEST_COMPONENT_LOAN),
		LabIDs:  []uint{7},
		DueDate: "2025-02-01",
	})
	assert.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "line item")
}

func TestSubmitRejectsEmptyLabSet(t *testing.T) {
	db.GetMockDB()

	_, err := Submit(1, types.ROLE_STUDENT, &types.SubmitRequestBody{
		Kind:   string(types.REQUEST_BOOKING),
		LabIDs: []uint{},
		Date:   "2099-01-10",
		Start:  "09:00",
		End:    "10:00",
	})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "at least one lab")
}

func TestDecideApprovesSingleResourceChain(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_FACULTY, types.AUTHORITY_HOD))
	mock.ExpectExec(`UPDATE "requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectCommit()

	request, err := Decide(9, 2, types.ROLE_FACULTY, types.OUTCOME_APPROVE, "fine by me", 0)
	assert.NoError(t, err)
	assert.Equal(t, types.REQUEST_PENDING_RESOURCE_STAFF, request.Status)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectExec(`UPDATE "requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_FINAL_AUTHORITY, types.AUTHORITY_HOD))
	mock.ExpectCommit()

	request, err = Decide(9, 3, types.ROLE_LAB_STAFF, types.OUTCOME_APPROVE, "slot is free", 0)
	assert.NoError(t, err)
	assert.Equal(t, types.REQUEST_PENDING_FINAL_AUTHORITY, request.Status)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_FINAL_AUTHORITY, types.AUTHORITY_HOD))
	mock.ExpectExec(`UPDATE "requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_APPROVED, types.AUTHORITY_HOD))
	mock.ExpectCommit()

	request, err = Decide(9, 4, types.ROLE_HOD, types.OUTCOME_APPROVE, "", 0)
	assert.NoError(t, err)
	assert.Equal(t, types.REQUEST_APPROVED, request.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsTerminalRequest(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_REJECTED, types.AUTHORITY_HOD))
	mock.ExpectRollback()

	_, err := Decide(9, 2, types.ROLE_FACULTY, types.OUTCOME_APPROVE, "", 0)
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.Equal(t, types.REQUEST_REJECTED, ise.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideEnforcesRoleGate(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, false, types.REQUEST_PENDING_FACULTY, types.AUTHORITY_HOD))
	mock.ExpectRollback()

	_, err := Decide(9, 2, types.ROLE_LAB_STAFF, types.OUTCOME_APPROVE, "", 0)
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, types.ROLE_FACULTY, ae.RequiredRole)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRequiresLabForMultiLeg(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(9, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectRollback()

	_, err := Decide(9, 2, types.ROLE_LAB_STAFF, types.OUTCOME_APPROVE, "", 0)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawRequiresOwnership(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "status"}).
		AddRow(9, 1, string(types.REQUEST_PENDING_RESOURCE_STAFF))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectRollback()

	err := Withdraw(9, 42)
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawRejectsIssuedLoan(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "status"}).
		AddRow(9, 1, string(types.REQUEST_ISSUED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectRollback()

	err := Withdraw(9, 1)
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.Equal(t, types.REQUEST_ISSUED, ise.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawDeletesRequestAndChildren(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "status", "is_multi"}).
		AddRow(9, 1, string(types.REQUEST_PENDING_FACULTY), true)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM "resource_decisions"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "request_items"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "extension_requests"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "requests"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := Withdraw(9, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkIssuedRequiresStaffRole(t *testing.T) {
	_, err := MarkIssued(9, 2, types.ROLE_STUDENT)
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, types.ROLE_LAB_STAFF, ae.RequiredRole)
}

func TestRequestReturnGuardsState(t *testing.T) {
	_, mock := db.GetMockDB()

	rows := sqlmock.NewRows([]string{"id", "requester_id", "kind", "status"}).
		AddRow(9, 1, string(types.REQUEST_COMPONENT_LOAN), string(types.REQUEST_RETURN_REQUESTED))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := RequestReturn(9, 1)
	var ise *InvalidStateError
	assert.ErrorAs(t, err, &ise)
	assert.Equal(t, types.REQUEST_RETURN_REQUESTED, ise.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmReturnRequiresStaffRole(t *testing.T) {
	_, err := ConfirmReturn(9, 2, types.ROLE_FACULTY)
	var ae *AuthorizationError
	assert.ErrorAs(t, err, &ae)
}
