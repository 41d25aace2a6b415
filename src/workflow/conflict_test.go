package workflow

import (
	"testing"
	"time"

	"lrbs/src/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd int
		want                           bool
	}{
		{"identical", 540, 600, 540, 600, true},
		{"contained", 540, 600, 550, 560, true},
		{"partial front", 540, 600, 530, 550, true},
		{"partial back", 540, 600, 590, 630, true},
		{"back to back after", 540, 600, 600, 660, false},
		{"back to back before", 540, 600, 480, 540, false},
		{"disjoint", 540, 600, 700, 760, false},
		{"one minute overlap", 540, 600, 599, 660, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}

func TestMinutesToClock(t *testing.T) {
	assert.Equal(t, "09:00", minutesToClock(540))
	assert.Equal(t, "00:00", minutesToClock(0))
	assert.Equal(t, "13:45", minutesToClock(825))
	assert.Equal(t, "23:59", minutesToClock(1439))
}

func TestCheckConflictsRejectsOverlappingBooking(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT requests\..* FROM "requests" LEFT JOIN resource_decisions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_min", "end_min"}).
			AddRow(3, 540, 660))

	err := CheckConflicts(gormDB, 7, date, 600, 720)
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "already reserved")
	assert.Contains(t, err.Error(), "09:00")
	assert.Contains(t, err.Error(), "11:00")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckConflictsAllowsBackToBackBooking(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT requests\..* FROM "requests" LEFT JOIN resource_decisions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_min", "end_min"}).
			AddRow(3, 540, 600))
	mock.ExpectQuery(`SELECT \* FROM "lab_schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course", "start_min", "end_min"}))

	err := CheckConflicts(gormDB, 7, date, 600, 660)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckConflictsRejectsScheduleBlock(t *testing.T) {
	gormDB, mock := db.NewMockDB()
	date := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DISTINCT requests\..* FROM "requests" LEFT JOIN resource_decisions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_min", "end_min"}))
	mock.ExpectQuery(`SELECT \* FROM "lab_schedules"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "course", "start_min", "end_min"}).
			AddRow(1, "Digital Circuits", 600, 720))

	err := CheckConflicts(gormDB, 7, date, 630, 690)
	var ce *ConflictError
	assert.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "Digital Circuits")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParseClock(t *testing.T) {
	m, err := parseClock("09:30")
	assert.NoError(t, err)
	assert.Equal(t, 570, m)

	_, err = parseClock("25:00")
	assert.Error(t, err)

	_, err = parseClock("morning")
	assert.Error(t, err)
}
