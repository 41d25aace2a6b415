package models

import (
	"lrbs/src/types"
)

type Lab struct {
	ID           uint   `gorm:"primarykey;uniqueIndex:labslug" json:"id"`
	Name         string `json:"name,omitempty"`
	Slug         string `gorm:"uniqueIndex:labslug" json:"slug"`
	Location     string `json:"location,omitempty"`
	DepartmentID uint   `json:"department_id,omitempty"`
	StaffID      uint   `json:"staff_id,omitempty"`
	Seats        uint   `json:"seats,omitempty"`

	Department Department  `gorm:"foreignKey:department_id" json:"-"`
	Staff      User        `gorm:"foreignKey:staff_id" json:"-"`
	Components []Component `gorm:"foreignKey:lab_id" json:"components,omitempty"`
	Schedules  []LabSchedule `gorm:"foreignKey:lab_id" json:"schedules,omitempty"`

	types.Timestamps
}

type Component struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	LabID       uint   `json:"lab_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	TotalQty    uint   `json:"total_qty,omitempty"`
	IssuedQty   uint   `json:"issued_qty,omitempty"`

	Lab Lab `gorm:"foreignKey:lab_id" json:"-"`

	types.Timestamps
}
