package workflow

import (
	"log"
	"lrbs/src/config"
	"lrbs/src/db"
	"lrbs/src/lib"
	"lrbs/src/models"
	"lrbs/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func parseClock(s string) (int, error) {
	t, err := time.Parse(config.CLOCK_PARSE_FORMAT, s)
	if err != nil {
		return 0, NewValidationError("invalid clock value %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(config.DATE_PARSE_FORMAT, s)
	if err != nil {
		return time.Time{}, NewValidationError("invalid date value %q", s)
	}
	return t, nil
}

// notifyTransition emits the post-commit transition event. Delivery is
// best-effort; a broker outage must never unwind a committed transition.
func notifyTransition(requestId uint, from, to types.RequestStatus) {
	go func() {
		payload := map[string]any{
			"RequestID": requestId,
			"From":      string(from),
			"To":        string(to),
		}
		if err := models.RequestTransitionProducer(requestId, payload); err != nil {
			log.Printf("Failed to emit transition event for request %d: %s\n", requestId, err.Error())
		}
	}()
}

// Submit validates the payload, resolves the chain entry point for the
// requester's role, snapshots the department's final authority and inserts
// the request with its children in one transaction. Booking submits hold a
// short advisory lock per (lab, date) around the check-then-insert.
func Submit(requesterId uint, requesterRole types.Role, body *types.SubmitRequestBody) (*models.Request, error) {
	kind := types.RequestKind(body.Kind)
	conn := db.GetDb()

	request := models.Request{
		Kind:          kind,
		RequesterID:   requesterId,
		RequesterRole: requesterRole,
		Status:        EntryStatus(requesterRole),
	}

	var date time.Time
	switch kind {
	case types.REQUEST_BOOKING:
		if body.Date == "" || body.Start == "" || body.End == "" {
			return nil, NewValidationError("booking requests need date, start and end")
		}
		d, err := parseDate(body.Date)
		if err != nil {
			return nil, err
		}
		startMin, err := parseClock(body.Start)
		if err != nil {
			return nil, err
		}
		endMin, err := parseClock(body.End)
		if err != nil {
			return nil, err
		}
		if startMin >= endMin {
			return nil, NewValidationError("start %s must be before end %s", body.Start, body.End)
		}
		date = d
		request.Date = &d
		request.StartMin = startMin
		request.EndMin = endMin
		request.Purpose = body.Purpose
	case types.REQUEST_COMPONENT_LOAN:
		if body.DueDate == "" {
			return nil, NewValidationError("component loans need a due date")
		}
		if len(body.Items) == 0 {
			return nil, NewValidationError("component loans need at least one line item")
		}
		due, err := parseDate(body.DueDate)
		if err != nil {
			return nil, err
		}
		request.DueDate = &due
		request.Purpose = body.Purpose
	default:
		return nil, NewValidationError("unknown request kind %q", body.Kind)
	}

	if len(body.LabIDs) == 0 {
		return nil, NewValidationError("at least one lab is required")
	}
	var labs []models.Lab
	if err := conn.Where("id IN ?", body.LabIDs).Find(&labs).Error; err != nil {
		return nil, err
	}
	if len(labs) != len(body.LabIDs) {
		return nil, NewValidationError("one or more labs do not exist")
	}
	deptId := labs[0].DepartmentID
	for _, l := range labs {
		if l.DepartmentID != deptId {
			return nil, NewValidationError("all labs of one request must belong to the same department")
		}
	}
	var department models.Department
	if err := conn.First(&department, deptId).Error; err != nil {
		return nil, err
	}

	request.DepartmentID = department.ID
	request.FinalAuthority = department.FinalAuthority
	request.AuthorityUserID = department.AuthorityUserID()
	if len(body.LabIDs) > 1 {
		request.IsMulti = true
	} else {
		request.LabID = &body.LabIDs[0]
	}

	if kind == types.REQUEST_COMPONENT_LOAN {
		labSet := map[uint]bool{}
		for _, id := range body.LabIDs {
			labSet[id] = true
		}
		var components []models.Component
		ids := make([]uint, 0, len(body.Items))
		for _, item := range body.Items {
			ids = append(ids, item.ComponentID)
		}
		if err := conn.Where("id IN ?", ids).Find(&components).Error; err != nil {
			return nil, err
		}
		byId := map[uint]models.Component{}
		for _, c := range components {
			byId[c.ID] = c
		}
		for _, item := range body.Items {
			c, ok := byId[item.ComponentID]
			if !ok || !labSet[c.LabID] {
				return nil, NewValidationError("component %d is not available from the requested labs", item.ComponentID)
			}
		}
	}

	// Serialize check-then-insert per (lab, date) so two concurrent submits
	// cannot both pass the overlap check. The token makes release safe.
	if kind == types.REQUEST_BOOKING {
		token := uuid.NewString()
		sDate := date.Format(config.DATE_PARSE_FORMAT)
		for i, labId := range body.LabIDs {
			ok, err := lib.AcquireSlotLock(labId, sDate, token)
			if err != nil || !ok {
				for _, held := range body.LabIDs[:i] {
					lib.ReleaseSlotLock(held, sDate, token)
				}
				if err != nil {
					return nil, err
				}
				return nil, NewConflictError("lab %d is being booked by someone else, retry shortly", labId)
			}
		}
		defer func() {
			for _, labId := range body.LabIDs {
				lib.ReleaseSlotLock(labId, sDate, token)
			}
		}()
	}

	err := conn.Transaction(func(tx *gorm.DB) error {
		if kind == types.REQUEST_BOOKING {
			for _, labId := range body.LabIDs {
				if err := CheckConflicts(tx, labId, date, request.StartMin, request.EndMin); err != nil {
					return err
				}
			}
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		if request.IsMulti {
			for _, labId := range body.LabIDs {
				decision := models.ResourceDecision{
					RequestID: request.ID,
					LabID:     labId,
					Status:    types.DECISION_PENDING,
				}
				if err := tx.Create(&decision).Error; err != nil {
					return err
				}
			}
		}
		for _, item := range body.Items {
			row := models.RequestItem{
				RequestID:   request.ID,
				ComponentID: item.ComponentID,
				Qty:         item.Qty,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	notifyTransition(request.ID, "", request.Status)
	return &request, nil
}

// Decide applies one approval-chain step. For a multi-lab request at the
// resource staff step the decision lands on the named lab's row and the
// parent only moves through Aggregate.
func Decide(requestId, actingUserId uint, actingRole types.Role, outcome types.DecisionOutcome, remarks string, labId uint) (*models.Request, error) {
	conn := db.GetDb()
	var request models.Request
	var from types.RequestStatus

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestId).Error; err != nil {
			return err
		}
		from = request.Status
		if !IsPending(request.Status) {
			return &InvalidStateError{Op: "decide", Status: request.Status}
		}
		required, _ := RequiredRole(request.Status, request.FinalAuthority)
		if actingRole != required {
			return &AuthorizationError{RequiredRole: required, Step: request.Status}
		}
		if request.Status == types.REQUEST_PENDING_FINAL_AUTHORITY &&
			request.AuthorityUserID != 0 && actingUserId != request.AuthorityUserID {
			return &AuthorizationError{RequiredRole: required, Step: request.Status}
		}

		now := time.Now()
		switch request.Status {
		case types.REQUEST_PENDING_FACULTY:
			updates := map[string]any{
				"faculty_id":         actingUserId,
				"faculty_decided_at": now,
				"faculty_remarks":    remarks,
			}
			if outcome == types.OUTCOME_REJECT {
				updates["status"] = types.REQUEST_REJECTED
				updates["rejection_reason"] = remarks
				updates["rejected_at_step"] = types.REQUEST_PENDING_FACULTY
			} else {
				updates["status"] = types.REQUEST_PENDING_RESOURCE_STAFF
			}
			return applyTransition(tx, &request, types.REQUEST_PENDING_FACULTY, updates)

		case types.REQUEST_PENDING_RESOURCE_STAFF:
			if !request.IsMulti {
				updates := map[string]any{
					"staff_id":         actingUserId,
					"staff_decided_at": now,
					"staff_remarks":    remarks,
				}
				if outcome == types.OUTCOME_REJECT {
					updates["status"] = types.REQUEST_REJECTED
					updates["rejection_reason"] = remarks
					updates["rejected_at_step"] = types.REQUEST_PENDING_RESOURCE_STAFF
				} else {
					updates["status"] = types.REQUEST_PENDING_FINAL_AUTHORITY
				}
				return applyTransition(tx, &request, types.REQUEST_PENDING_RESOURCE_STAFF, updates)
			}
			if labId == 0 {
				return NewValidationError("lab_id is required when deciding one leg of a multi-lab request")
			}
			decided := types.DECISION_APPROVED
			if outcome == types.OUTCOME_REJECT {
				decided = types.DECISION_REJECTED
			}
			res := tx.
				Model(&models.ResourceDecision{}).
				Where("request_id = ? AND lab_id = ? AND status = ?", requestId, labId, types.DECISION_PENDING).
				Updates(map[string]any{
					"status":      decided,
					"approver_id": actingUserId,
					"decided_at":  now,
					"remarks":     remarks,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var count int64
				tx.Model(&models.ResourceDecision{}).
					Where("request_id = ? AND lab_id = ?", requestId, labId).
					Count(&count)
				if count == 0 {
					return NewValidationError("request %d has no leg for lab %d", requestId, labId)
				}
				return NewConflictError("lab %d of request %d was already decided", labId, requestId)
			}
			if _, err := Aggregate(tx, requestId); err != nil {
				return err
			}
			return tx.First(&request, requestId).Error

		case types.REQUEST_PENDING_FINAL_AUTHORITY:
			updates := map[string]any{
				"authority_id":         actingUserId,
				"authority_decided_at": now,
				"authority_remarks":    remarks,
			}
			if outcome == types.OUTCOME_REJECT {
				updates["status"] = types.REQUEST_REJECTED
				updates["rejection_reason"] = remarks
				updates["rejected_at_step"] = types.REQUEST_PENDING_FINAL_AUTHORITY
			} else {
				updates["status"] = types.REQUEST_APPROVED
			}
			return applyTransition(tx, &request, types.REQUEST_PENDING_FINAL_AUTHORITY, updates)
		}
		return &InvalidStateError{Op: "decide", Status: request.Status}
	})
	if err != nil {
		return nil, err
	}
	if request.Status != from {
		notifyTransition(request.ID, from, request.Status)
	}
	return &request, nil
}

// applyTransition writes the new status guarded by the expected one. Losing
// the guard means a concurrent writer got there first.
func applyTransition(tx *gorm.DB, request *models.Request, expected types.RequestStatus, updates map[string]any) error {
	res := tx.
		Model(&models.Request{}).
		Where("id = ? AND status = ?", request.ID, expected).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return NewConflictError("request %d was modified concurrently, expected status %s", request.ID, expected)
	}
	return tx.First(request, request.ID).Error
}

// Withdraw hard-deletes a request and everything hanging off it. Only the
// requester may withdraw and only while the chain has not finished.
func Withdraw(requestId, requesterId uint) error {
	conn := db.GetDb()
	return conn.Transaction(func(tx *gorm.DB) error {
		var request models.Request
		if err := tx.First(&request, requestId).Error; err != nil {
			return err
		}
		if request.RequesterID != requesterId {
			return &AuthorizationError{Message: "only the requester may withdraw a request"}
		}
		if !IsPending(request.Status) {
			return &InvalidStateError{Op: "withdraw", Status: request.Status}
		}
		if err := tx.Unscoped().Where("request_id = ?", requestId).Delete(&models.ResourceDecision{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("request_id = ?", requestId).Delete(&models.RequestItem{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("request_id = ?", requestId).Delete(&models.ExtensionRequest{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Request{}, requestId).Error
	})
}

// MarkIssued records physical handover of an approved component loan and
// reserves stock. Schedules the due-date reminder after commit.
func MarkIssued(requestId, staffId uint, actingRole types.Role) (*models.Request, error) {
	if actingRole != types.ROLE_LAB_STAFF {
		return nil, &AuthorizationError{RequiredRole: types.ROLE_LAB_STAFF, Step: types.REQUEST_APPROVED}
	}
	conn := db.GetDb()
	var request models.Request
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&request, requestId).Error; err != nil {
			return err
		}
		if request.Kind != types.REQUEST_COMPONENT_LOAN {
			return &InvalidStateError{Op: "issue", Status: request.Status}
		}
		if request.Status != types.REQUEST_APPROVED {
			return &InvalidStateError{Op: "issue", Status: request.Status}
		}
		for _, item := range request.Items {
			res := tx.
				Model(&models.Component{}).
				Where("id = ? AND issued_qty + ? <= total_qty", item.ComponentID, item.Qty).
				Update("issued_qty", gorm.Expr("issued_qty + ?", item.Qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return NewConflictError("component %d has insufficient stock for qty %d", item.ComponentID, item.Qty)
			}
		}
		now := time.Now()
		return applyTransition(tx, &request, types.REQUEST_APPROVED, map[string]any{
			"status":    types.REQUEST_ISSUED,
			"issued_at": now,
		})
	})
	if err != nil {
		return nil, err
	}
	notifyTransition(request.ID, types.REQUEST_APPROVED, types.REQUEST_ISSUED)
	if request.DueDate != nil {
		go scheduleDueReminder(&request)
	}
	return &request, nil
}

// scheduleDueReminder enqueues the reminder that fires on the loan's due
// date. Failure here is logged only; the issuance already committed.
func scheduleDueReminder(request *models.Request) {
	task := models.JobTask{
		Name:          "loan_due_reminder",
		JobType:       "due_reminder",
		RunsAt:        *request.DueDate,
		HandlerParams: []any{request.ID},
		Topic:         "loans-due",
		Payload: types.JSONB{
			"RequestID": request.ID,
		},
		Source:     "requests",
		SourceType: "request",
	}
	if _, err := (&models.JobTask{}).CreateAndEnqueueJobTask(task); err != nil {
		log.Printf("Failed to schedule due reminder for request %d: %s\n", request.ID, err.Error())
	}
}

// RequestReturn moves an issued loan to return_requested. Repeating the
// call or calling it after return fails loudly instead of silently passing.
func RequestReturn(requestId, requesterId uint) (*models.Request, error) {
	conn := db.GetDb()
	var request models.Request
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestId).Error; err != nil {
			return err
		}
		if request.RequesterID != requesterId {
			return &AuthorizationError{Message: "only the requester may ask for a return"}
		}
		if request.Kind != types.REQUEST_COMPONENT_LOAN || request.Status != types.REQUEST_ISSUED {
			return &InvalidStateError{Op: "request return", Status: request.Status}
		}
		return applyTransition(tx, &request, types.REQUEST_ISSUED, map[string]any{
			"status": types.REQUEST_RETURN_REQUESTED,
		})
	})
	if err != nil {
		return nil, err
	}
	notifyTransition(request.ID, types.REQUEST_ISSUED, types.REQUEST_RETURN_REQUESTED)
	return &request, nil
}

// ConfirmReturn is the staff-side half of the return handshake, terminal
// for the loan, and releases the reserved stock.
func ConfirmReturn(requestId, staffId uint, actingRole types.Role) (*models.Request, error) {
	if actingRole != types.ROLE_LAB_STAFF {
		return nil, &AuthorizationError{RequiredRole: types.ROLE_LAB_STAFF, Step: types.REQUEST_RETURN_REQUESTED}
	}
	conn := db.GetDb()
	var request models.Request
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&request, requestId).Error; err != nil {
			return err
		}
		if request.Status != types.REQUEST_RETURN_REQUESTED {
			return &InvalidStateError{Op: "confirm return", Status: request.Status}
		}
		for _, item := range request.Items {
			res := tx.
				Model(&models.Component{}).
				Where("id = ? AND issued_qty >= ?", item.ComponentID, item.Qty).
				Update("issued_qty", gorm.Expr("issued_qty - ?", item.Qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				log.Printf("Stock count for component %d drifted, skipping decrement\n", item.ComponentID)
			}
		}
		now := time.Now()
		return applyTransition(tx, &request, types.REQUEST_RETURN_REQUESTED, map[string]any{
			"status":      types.REQUEST_RETURNED,
			"returned_at": now,
		})
	})
	if err != nil {
		return nil, err
	}
	notifyTransition(request.ID, types.REQUEST_RETURN_REQUESTED, types.REQUEST_RETURNED)
	return &request, nil
}
