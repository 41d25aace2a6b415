package models

import (
	"lrbs/src/lib"
	"lrbs/src/types"
	"log"
	"time"
)

// Request is the unit of work in the approval workflow. The chain entry
// point and the final authority are snapshotted at submission time, so
// reconfiguring a department never moves an in-flight request.
type Request struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	Kind          types.RequestKind `json:"kind,omitempty"`
	RequesterID   uint              `json:"requester_id,omitempty"`
	RequesterRole types.Role        `json:"requester_role,omitempty"`
	DepartmentID  uint              `json:"department_id,omitempty"`
	IsMulti       bool              `gorm:"default:false" json:"is_multi"`
	LabID         *uint             `json:"lab_id,omitempty"`

	FinalAuthority  types.FinalAuthority `json:"final_authority,omitempty"`
	AuthorityUserID uint                 `json:"-"`

	Status types.RequestStatus `gorm:"default:'pending_faculty'" json:"status,omitempty"`

	// booking
	Date     *time.Time `json:"date,omitempty"`
	StartMin int        `json:"start_min,omitempty"`
	EndMin   int        `json:"end_min,omitempty"`
	Purpose  string     `json:"purpose,omitempty"`

	// component loan
	DueDate *time.Time `json:"due_date,omitempty"`

	FacultyID          *uint      `json:"faculty_id,omitempty"`
	FacultyDecidedAt   *time.Time `json:"faculty_decided_at,omitempty"`
	FacultyRemarks     string     `json:"faculty_remarks,omitempty"`
	StaffID            *uint      `json:"staff_id,omitempty"`
	StaffDecidedAt     *time.Time `json:"staff_decided_at,omitempty"`
	StaffRemarks       string     `json:"staff_remarks,omitempty"`
	AuthorityID        *uint      `json:"authority_id,omitempty"`
	AuthorityDecidedAt *time.Time `json:"authority_decided_at,omitempty"`
	AuthorityRemarks   string     `json:"authority_remarks,omitempty"`

	RejectionReason *string              `json:"rejection_reason,omitempty"`
	RejectedAtStep  *types.RequestStatus `json:"rejected_at_step,omitempty"`

	IssuedAt   *time.Time `json:"issued_at,omitempty"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`

	Requester  User               `gorm:"foreignKey:requester_id" json:"requester,omitempty"`
	Lab        *Lab               `gorm:"foreignKey:lab_id" json:"lab,omitempty"`
	Decisions  []ResourceDecision `gorm:"foreignKey:request_id" json:"decisions,omitempty"`
	Items      []RequestItem      `gorm:"foreignKey:request_id" json:"items,omitempty"`
	Extensions []ExtensionRequest `gorm:"foreignKey:request_id" json:"extensions,omitempty"`

	types.Timestamps
}

// ResourceDecision is one lab's share of a multi-lab request. Rows exist
// only when the parent has IsMulti set and are deleted with it.
type ResourceDecision struct {
	ID         uint                 `gorm:"primarykey" json:"id"`
	RequestID  uint                 `gorm:"uniqueIndex:reqlab" json:"request_id,omitempty"`
	LabID      uint                 `gorm:"uniqueIndex:reqlab" json:"lab_id,omitempty"`
	Status     types.DecisionStatus `gorm:"default:'pending'" json:"status,omitempty"`
	ApproverID *uint                `json:"approver_id,omitempty"`
	DecidedAt  *time.Time           `json:"decided_at,omitempty"`
	Remarks    string               `json:"remarks,omitempty"`

	Lab Lab `gorm:"foreignKey:lab_id" json:"lab,omitempty"`

	types.Timestamps
}

type RequestItem struct {
	ID          uint `gorm:"primarykey" json:"id"`
	RequestID   uint `json:"request_id,omitempty"`
	ComponentID uint `json:"component_id,omitempty"`
	Qty         uint `json:"qty,omitempty"`

	Component Component `gorm:"foreignKey:component_id" json:"component,omitempty"`

	types.Timestamps
}

func RequestTransitionProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("request_transitions_producer", "requests-transitions", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}

func LoanDueProducer(id uint, payload map[string]any) error {
	err := lib.KafkaProduceMessage("loans_due_producer", "loans-due", payload)
	if err != nil {
		log.Printf("Error on producing message: %s\n", err.Error())
		return err
	}
	return nil
}
