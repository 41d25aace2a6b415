package workflow

import (
	"lrbs/src/db"
	"lrbs/src/types"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSweepNoCandidatesIsANoop(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectQuery(`SELECT "requests"."id" FROM "requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	summary, err := Sweep("test")
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.MovedToFinalAuthority)
	assert.Equal(t, 0, summary.AutoApproved)
	assert.Equal(t, 0, summary.Rejected)
	assert.Empty(t, summary.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepRepairsStuckRequest(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectQuery(`SELECT "requests"."id" FROM "requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	// aggregate inside its own transaction
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "requests"`).
		WillReturnRows(requestRow(5, true, types.REQUEST_PENDING_RESOURCE_STAFF, types.AUTHORITY_HOD))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "resource_decisions"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`UPDATE "requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// sweep run record
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "sweep_runs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("3b2e07f2-58a7-4f3e-9a49-9e5b3a6e7a01"))
	mock.ExpectCommit()

	summary, err := Sweep("test")
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.MovedToFinalAuthority)
	assert.Equal(t, 0, summary.AutoApproved)
	assert.Equal(t, 0, summary.Rejected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A second pass over the same data finds nothing: the candidate query
// excludes anything no longer pending_resource_staff.
func TestSweepIsIdempotent(t *testing.T) {
	_, mock := db.GetMockDB()

	mock.ExpectQuery(`SELECT "requests"."id" FROM "requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	summary, err := Sweep("test")
	assert.NoError(t, err)
	assert.Equal(t, types.SweepSummary{}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}
