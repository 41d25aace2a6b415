package workflow

import (
	"lrbs/src/db"
	"lrbs/src/models"
	"lrbs/src/types"
	"time"

	"gorm.io/gorm"
)

// RequestExtension opens a due-date extension for an issued loan. The
// primary chain is untouched; only one extension may be open at a time.
func RequestExtension(requestId, requesterId uint, body *types.ExtensionRequestBody) (*models.ExtensionRequest, error) {
	newDue, err := parseDate(body.NewDueDate)
	if err != nil {
		return nil, err
	}
	conn := db.GetDb()
	var extension models.ExtensionRequest
	err = conn.Transaction(func(tx *gorm.DB) error {
		var request models.Request
		if err := tx.First(&request, requestId).Error; err != nil {
			return err
		}
		if request.RequesterID != requesterId {
			return &AuthorizationError{Message: "only the requester may ask for an extension"}
		}
		if request.Kind != types.REQUEST_COMPONENT_LOAN || request.Status != types.REQUEST_ISSUED {
			return &InvalidStateError{Op: "request extension", Status: request.Status}
		}
		var open int64
		err := tx.
			Model(&models.ExtensionRequest{}).
			Where("request_id = ? AND status = ?", requestId, types.EXTENSION_PENDING).
			Count(&open).Error
		if err != nil {
			return err
		}
		if open > 0 {
			return &InvalidStateError{Op: "request extension", Status: request.Status}
		}
		extension = models.ExtensionRequest{
			RequestID:  requestId,
			NewDueDate: newDue,
			Reason:     body.Reason,
			Status:     types.EXTENSION_PENDING,
		}
		return tx.Create(&extension).Error
	})
	if err != nil {
		return nil, err
	}
	return &extension, nil
}

// DecideExtension closes the open extension. Approval moves the loan's due
// date and reschedules the reminder; rejection leaves the due date alone.
func DecideExtension(requestId, deciderId uint, actingRole types.Role, approve bool, remarks string) (*models.ExtensionRequest, error) {
	if actingRole != types.ROLE_LAB_STAFF {
		return nil, &AuthorizationError{RequiredRole: types.ROLE_LAB_STAFF, Step: types.REQUEST_ISSUED}
	}
	conn := db.GetDb()
	var extension models.ExtensionRequest
	var request models.Request
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, requestId).Error; err != nil {
			return err
		}
		err := tx.
			Where("request_id = ? AND status = ?", requestId, types.EXTENSION_PENDING).
			First(&extension).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &InvalidStateError{Op: "decide extension", Status: request.Status}
			}
			return err
		}
		now := time.Now()
		status := types.EXTENSION_REJECTED
		if approve {
			status = types.EXTENSION_APPROVED
			res := tx.
				Model(&models.Request{}).
				Where("id = ? AND status = ?", requestId, types.REQUEST_ISSUED).
				Update("due_date", extension.NewDueDate)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InvalidStateError{Op: "decide extension", Status: request.Status}
			}
			request.DueDate = &extension.NewDueDate
		}
		res := tx.
			Model(&models.ExtensionRequest{}).
			Where("id = ? AND status = ?", extension.ID, types.EXTENSION_PENDING).
			Updates(map[string]any{
				"status":     status,
				"decided_by": deciderId,
				"decided_at": now,
				"remarks":    remarks,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return NewConflictError("extension %d was decided concurrently", extension.ID)
		}
		extension.Status = status
		extension.DecidedBy = &deciderId
		extension.DecidedAt = &now
		extension.Remarks = remarks
		return nil
	})
	if err != nil {
		return nil, err
	}
	if approve && request.DueDate != nil {
		go scheduleDueReminder(&request)
	}
	return &extension, nil
}
