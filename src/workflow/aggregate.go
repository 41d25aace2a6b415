package workflow

import (
	"log"
	"lrbs/src/models"
	"lrbs/src/types"
	"time"

	"gorm.io/gorm"
)

type AggregateOutcome string

const (
	AGGREGATE_NONE            AggregateOutcome = "none"
	AGGREGATE_FINAL_AUTHORITY AggregateOutcome = "moved_to_final_authority"
	AGGREGATE_AUTO_APPROVED   AggregateOutcome = "auto_approved"
	AGGREGATE_REJECTED        AggregateOutcome = "rejected"
)

// Aggregate derives a multi-lab request's parent status from its child
// decisions. This is the only place that derivation lives; the online
// decide path and the reconciliation sweep both call it, so they cannot
// disagree. Re-entrant: a request whose parent already moved on, or with
// any child still pending, is a no-op.
func Aggregate(tx *gorm.DB, requestId uint) (AggregateOutcome, error) {
	var request models.Request
	err := tx.
		Model(&models.Request{}).
		Where("id = ?", requestId).
		First(&request).Error
	if err != nil {
		return AGGREGATE_NONE, err
	}
	if !request.IsMulti || request.Status != types.REQUEST_PENDING_RESOURCE_STAFF {
		return AGGREGATE_NONE, nil
	}

	var pending int64
	err = tx.
		Model(&models.ResourceDecision{}).
		Where("request_id = ? AND status = ?", requestId, types.DECISION_PENDING).
		Count(&pending).Error
	if err != nil {
		return AGGREGATE_NONE, err
	}
	if pending > 0 {
		return AGGREGATE_NONE, nil
	}

	var approved int64
	err = tx.
		Model(&models.ResourceDecision{}).
		Where("request_id = ? AND status = ?", requestId, types.DECISION_APPROVED).
		Count(&approved).Error
	if err != nil {
		return AGGREGATE_NONE, err
	}

	now := time.Now()
	outcome := AGGREGATE_REJECTED
	updates := map[string]any{
		// Stamped here and only here: later sweeps never reselect this
		// request, so the timestamp is set exactly once.
		"staff_decided_at": now,
	}
	if approved > 0 {
		if request.FinalAuthority == types.AUTHORITY_LAB_COORDINATOR {
			// The lab-coordinator track treats resource-staff sign-off as
			// sufficient and skips the explicit final step.
			outcome = AGGREGATE_AUTO_APPROVED
			updates["status"] = types.REQUEST_APPROVED
		} else {
			outcome = AGGREGATE_FINAL_AUTHORITY
			updates["status"] = types.REQUEST_PENDING_FINAL_AUTHORITY
		}
	} else {
		updates["status"] = types.REQUEST_REJECTED
		updates["rejection_reason"] = "all resources rejected"
		updates["rejected_at_step"] = types.REQUEST_PENDING_RESOURCE_STAFF
	}

	res := tx.
		Model(&models.Request{}).
		Where("id = ? AND status = ?", requestId, types.REQUEST_PENDING_RESOURCE_STAFF).
		Updates(updates)
	if res.Error != nil {
		return AGGREGATE_NONE, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent decide or sweep already moved the parent.
		log.Printf("aggregate: request %d already transitioned, skipping\n", requestId)
		return AGGREGATE_NONE, nil
	}
	return outcome, nil
}
