package models

import (
	"lrbs/src/types"
)

// Department owns labs and the approval chain configuration: which authority
// signs off last and who that is. The workflow engine reads this once per
// submit and snapshots it on the Request.
type Department struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	Name           string               `json:"name,omitempty"`
	Code           string               `gorm:"uniqueIndex" json:"code,omitempty"`
	FinalAuthority types.FinalAuthority `gorm:"default:'hod'" json:"final_authority,omitempty"`
	HODID          uint                 `json:"hod_id,omitempty"`
	CoordinatorID  uint                 `json:"coordinator_id,omitempty"`
	ContactEmail   string               `json:"email,omitempty"`

	Labs        []Lab `gorm:"foreignKey:department_id" json:"labs,omitempty"`
	HOD         User  `gorm:"foreignKey:hod_id" json:"-"`
	Coordinator User  `gorm:"foreignKey:coordinator_id" json:"-"`

	types.Timestamps
}

// AuthorityUserID returns the user holding final sign-off under the current
// configuration.
func (d *Department) AuthorityUserID() uint {
	if d.FinalAuthority == types.AUTHORITY_LAB_COORDINATOR {
		return d.CoordinatorID
	}
	return d.HODID
}

// AuthorityRole maps the configured authority to the role checked at the
// pending_final_authority step.
func (d *Department) AuthorityRole() types.Role {
	if d.FinalAuthority == types.AUTHORITY_LAB_COORDINATOR {
		return types.ROLE_LAB_COORDINATOR
	}
	return types.ROLE_HOD
}
