package models

import (
	"lrbs/src/types"
	"time"
)

type User struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `json:"name,omitempty"`
	Email         string         `json:"email,omitempty"`
	Role          types.Role     `json:"role,omitempty"`
	UID           string         `json:"uid,omitempty"`
	DepartmentID  uint           `json:"department_id,omitempty"`
	FCMToken      *string        `json:"-"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	VerifiedAt    time.Time      `json:"verified_at,omitempty"`
	Metadata      *types.Metadata `gorm:"type:jsonb"`

	Requests   []Request   `gorm:"foreignKey:requester_id" json:"requests,omitempty"`
	Department *Department `gorm:"foreignKey:department_id" json:"-"`

	types.Timestamps
}
