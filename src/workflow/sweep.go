package workflow

import (
	"fmt"
	"log"
	"lrbs/src/db"
	"lrbs/src/models"
	"lrbs/src/types"

	"gorm.io/gorm"
)

// Sweep repairs multi-lab requests whose parent status is stuck at
// pending_resource_staff even though every child decision is resolved,
// the footprint of a crash between "decision recorded" and "parent
// re-evaluated". Each candidate is re-aggregated in its own transaction
// so one bad row never aborts the batch. Safe to run repeatedly and
// concurrently with live decides: Aggregate re-checks child state fresh
// and a request already moved on is simply not selected again.
func Sweep(trigger string) (types.SweepSummary, error) {
	summary := types.SweepSummary{}
	conn := db.GetDb()

	var stuck []uint
	err := conn.
		Model(&models.Request{}).
		Where("is_multi = ? AND status = ?", true, types.REQUEST_PENDING_RESOURCE_STAFF).
		Where("(SELECT COUNT(1) FROM resource_decisions rd WHERE rd.request_id = requests.id AND rd.status = ?) = 0", types.DECISION_PENDING).
		Pluck("requests.id", &stuck).Error
	if err != nil {
		return summary, err
	}
	if len(stuck) == 0 {
		return summary, nil
	}
	log.Printf("sweep(%s): found %d stuck request(s)\n", trigger, len(stuck))

	for _, id := range stuck {
		var outcome AggregateOutcome
		err := conn.Transaction(func(tx *gorm.DB) error {
			var err error
			outcome, err = Aggregate(tx, id)
			return err
		})
		if err != nil {
			log.Printf("sweep(%s): request %d failed: %s\n", trigger, id, err.Error())
			summary.Errors = append(summary.Errors, fmt.Sprintf("request %d: %s", id, err.Error()))
			continue
		}
		switch outcome {
		case AGGREGATE_FINAL_AUTHORITY:
			summary.MovedToFinalAuthority++
			notifyTransition(id, types.REQUEST_PENDING_RESOURCE_STAFF, types.REQUEST_PENDING_FINAL_AUTHORITY)
		case AGGREGATE_AUTO_APPROVED:
			summary.AutoApproved++
			notifyTransition(id, types.REQUEST_PENDING_RESOURCE_STAFF, types.REQUEST_APPROVED)
		case AGGREGATE_REJECTED:
			summary.Rejected++
			notifyTransition(id, types.REQUEST_PENDING_RESOURCE_STAFF, types.REQUEST_REJECTED)
		}
	}

	run := models.SweepRun{
		MovedToFinalAuthority: summary.MovedToFinalAuthority,
		AutoApproved:          summary.AutoApproved,
		Rejected:              summary.Rejected,
		ErrorCount:            len(summary.Errors),
		Trigger:               trigger,
	}
	if err := conn.Create(&run).Error; err != nil {
		log.Printf("sweep(%s): failed to record run: %s\n", trigger, err.Error())
	}
	return summary, nil
}
