package models

import (
	"lrbs/src/types"
)

// LabSchedule is a fixed weekly teaching block. Weekday follows the
// Sunday=0..Saturday=6 convention; slot boundaries are minutes since
// midnight, half-open [start, end).
type LabSchedule struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	LabID    uint   `gorm:"index:lab_weekday" json:"lab_id,omitempty"`
	Weekday  int    `gorm:"index:lab_weekday" json:"weekday"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
	Course   string `json:"course,omitempty"`

	Lab Lab `gorm:"foreignKey:lab_id" json:"-"`

	types.Timestamps
}
