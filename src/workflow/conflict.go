package workflow

import (
	"fmt"
	"lrbs/src/models"
	"lrbs/src/types"
	"time"

	"gorm.io/gorm"
)

// blockingStatuses are the request states that hold a slot against new
// bookings. Rejected and returned requests release it; issued never applies
// to bookings.
var blockingStatuses = []types.RequestStatus{
	types.REQUEST_PENDING_FACULTY,
	types.REQUEST_PENDING_RESOURCE_STAFF,
	types.REQUEST_PENDING_FINAL_AUTHORITY,
	types.REQUEST_APPROVED,
}

// Overlaps tests two same-day wall-clock intervals, half-open [start, end).
// Back-to-back slots (aEnd == bStart) do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// CheckConflicts runs the one read query guarding slot exclusivity for a
// lab on a date. It is read-only and safe to call repeatedly; serialization
// against concurrent submits is the caller's problem.
func CheckConflicts(tx *gorm.DB, labId uint, date time.Time, startMin, endMin int) error {
	var existing []models.Request
	err := tx.
		Model(&models.Request{}).
		Joins("LEFT JOIN resource_decisions ON resource_decisions.request_id = requests.id").
		Where("requests.kind = ?", types.REQUEST_BOOKING).
		Where("requests.status IN ?", blockingStatuses).
		Where("requests.date = ?", date).
		Where("requests.lab_id = ? OR (resource_decisions.lab_id = ? AND resource_decisions.status <> ?)", labId, labId, types.DECISION_REJECTED).
		Distinct("requests.*").
		Find(&existing).Error
	if err != nil {
		return err
	}
	for _, r := range existing {
		if Overlaps(startMin, endMin, r.StartMin, r.EndMin) {
			return NewConflictError(
				"lab %d is already reserved on %s from %s to %s by request %d",
				labId, date.Format("2006-01-02"), minutesToClock(r.StartMin), minutesToClock(r.EndMin), r.ID,
			)
		}
	}

	weekday := int(date.Weekday())
	var schedules []models.LabSchedule
	err = tx.
		Model(&models.LabSchedule{}).
		Where("lab_id = ? AND weekday = ?", labId, weekday).
		Find(&schedules).Error
	if err != nil {
		return err
	}
	for _, s := range schedules {
		if Overlaps(startMin, endMin, s.StartMin, s.EndMin) {
			return NewConflictError(
				"lab %d holds %q every %s from %s to %s",
				labId, s.Course, date.Weekday().String(), minutesToClock(s.StartMin), minutesToClock(s.EndMin),
			)
		}
	}
	return nil
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
