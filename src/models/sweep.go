package models

import (
	"lrbs/src/types"

	"github.com/google/uuid"
)

// SweepRun records one reconciliation pass for observability.
type SweepRun struct {
	ID                    uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	MovedToFinalAuthority int       `json:"moved_to_final_authority"`
	AutoApproved          int       `json:"auto_approved"`
	Rejected              int       `json:"rejected"`
	ErrorCount            int       `json:"error_count"`
	Trigger               string    `json:"trigger,omitempty"`

	types.Timestamps
}
