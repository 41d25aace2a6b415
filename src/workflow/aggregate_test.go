package workflow

import (
	"lrbs/src/db"
	"lrbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func requestRow(id uint, isMulti bool, status types.RequestStatus, authority types.FinalAuthority) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "is_multi", "status", "final_authority"}).
		AddRow(id, isMulti, string(status), string(authority))
}

func TestAggregateNoopWhileChildrenPending(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_NONE, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateNoopWhenParentAlreadyMoved(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_FINAL_AUTHORITY, types.AUTHORITY_HOD))

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_NONE, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateMovesToFinalAuthority(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_FINAL_AUTHORITY, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateAutoApprovesUnderLabCoordinator(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_LAB_COORDINATOR))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_AUTO_APPROVED, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateRejectsWhenAllLegsRejected(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_REJECTED, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateLosesOptimisticGuardGracefully(t *testing.T) {
	gormDB, mock := db.NewMockDB()

	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(1, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "requests"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	outcome, err := Aggregate(gormDB, 1)
	assert.NoError(t, err)
	assert.Equal(t, AGGREGATE_NONE, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}
