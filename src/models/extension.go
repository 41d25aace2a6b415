package models

import (
	"lrbs/src/types"
	"time"
)

// ExtensionRequest asks for a new due date on an issued component loan.
// At most one row per request may be pending at a time.
type ExtensionRequest struct {
	ID         uint                  `gorm:"primarykey" json:"id"`
	RequestID  uint                  `gorm:"index" json:"request_id,omitempty"`
	NewDueDate time.Time             `json:"new_due_date,omitempty"`
	Reason     string                `json:"reason,omitempty"`
	Status     types.ExtensionStatus `gorm:"default:'pending'" json:"status,omitempty"`
	DecidedBy  *uint                 `json:"decided_by,omitempty"`
	DecidedAt  *time.Time            `json:"decided_at,omitempty"`
	Remarks    string                `json:"remarks,omitempty"`

	Request Request `gorm:"foreignKey:request_id" json:"-"`

	types.Timestamps
}
