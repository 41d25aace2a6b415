package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type Environment string

const (
	Local       Environment = "local"
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// Role is the closed set of actor roles the approval chain knows about.
// Keeping it a typed constant set means every switch over roles is checked
// at the call site when a new role is added.
type Role string

const (
	ROLE_STUDENT         Role = "student"
	ROLE_FACULTY         Role = "faculty"
	ROLE_LAB_STAFF       Role = "lab_staff"
	ROLE_HOD             Role = "hod"
	ROLE_LAB_COORDINATOR Role = "lab_coordinator"
	ROLE_TNP             Role = "tnp"
	ROLE_OFFICE_STAFF    Role = "office_staff"
)

// FinalAuthority is the department-configured last sign-off.
type FinalAuthority string

const (
	AUTHORITY_HOD             FinalAuthority = "hod"
	AUTHORITY_LAB_COORDINATOR FinalAuthority = "lab_coordinator"
)

type RequestKind string

const (
	REQUEST_BOOKING        RequestKind = "booking"
	REQUEST_COMPONENT_LOAN RequestKind = "component_loan"
)

type RequestStatus string

const (
	REQUEST_PENDING_FACULTY         RequestStatus = "pending_faculty"
	REQUEST_PENDING_RESOURCE_STAFF  RequestStatus = "pending_resource_staff"
	REQUEST_PENDING_FINAL_AUTHORITY RequestStatus = "pending_final_authority"
	REQUEST_APPROVED                RequestStatus = "approved"
	REQUEST_REJECTED                RequestStatus = "rejected"
	REQUEST_ISSUED                  RequestStatus = "issued"
	REQUEST_RETURN_REQUESTED        RequestStatus = "return_requested"
	REQUEST_RETURNED                RequestStatus = "returned"
)

type DecisionStatus string

const (
	DECISION_PENDING  DecisionStatus = "pending"
	DECISION_APPROVED DecisionStatus = "approved"
	DECISION_REJECTED DecisionStatus = "rejected"
)

type ExtensionStatus string

const (
	EXTENSION_PENDING  ExtensionStatus = "pending"
	EXTENSION_APPROVED ExtensionStatus = "approved"
	EXTENSION_REJECTED ExtensionStatus = "rejected"
)

type DecisionOutcome string

const (
	OUTCOME_APPROVE DecisionOutcome = "approve"
	OUTCOME_REJECT  DecisionOutcome = "reject"
)

type LoanItem struct {
	ComponentID uint `json:"component" binding:"required"`
	Qty         uint `json:"qty" binding:"required,min=1"`
}

type SubmitRequestBody struct {
	Kind    string `json:"kind" binding:"required,oneof=booking component_loan"`
	LabIDs  []uint `json:"labs" binding:"required,min=1"`
	Purpose string `json:"purpose,omitempty"`

	// booking fields
	Date  string `json:"date,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02"`
	Start string `json:"start,omitempty" binding:"omitempty,clocktime"`
	End   string `json:"end,omitempty" binding:"omitempty,clocktime,gtclock=Start"`

	// component loan fields
	DueDate string     `json:"due_date,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02"`
	Items   []LoanItem `json:"items,omitempty" binding:"omitempty,min=1,dive"`
}

type DecisionRequestBody struct {
	Outcome string `json:"outcome" binding:"required,oneof=approve reject"`
	Remarks string `json:"remarks,omitempty"`
	LabID   uint   `json:"lab_id,omitempty"`
}

type ExtensionRequestBody struct {
	NewDueDate string `json:"new_due_date" binding:"required,bookabledate" time_format:"2006-01-02"`
	Reason     string `json:"reason,omitempty"`
}

type ExtensionDecisionRequestBody struct {
	Outcome string `json:"outcome" binding:"required,oneof=approve reject"`
	Remarks string `json:"remarks,omitempty"`
}

type CreateLabRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location,omitempty"`
	Seats    uint   `json:"seats,omitempty"`
	StaffID  uint   `json:"staff_id,omitempty"`
}

type CreateLabScheduleBody struct {
	Weekday int    `json:"weekday" binding:"min=0,max=6"`
	Start   string `json:"start" binding:"required,clocktime"`
	End     string `json:"end" binding:"required,clocktime,gtclock=Start"`
	Course  string `json:"course,omitempty"`
}

type LabScheduleQuery struct {
	Date string `form:"date" binding:"required" time_format:"2006-01-02"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type RequestsQueryFilters struct {
	Dept   bool   `form:"dept,omitempty" binding:"omitempty"`
	Status string `form:"status,omitempty" binding:"omitempty"`
	Kind   string `form:"kind,omitempty" binding:"omitempty"`
}

type SweepSummary struct {
	MovedToFinalAuthority int      `json:"moved_to_final_authority"`
	AutoApproved          int      `json:"auto_approved"`
	Rejected              int      `json:"rejected"`
	Errors                []string `json:"errors,omitempty"`
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Department  uint
	jwt.RegisteredClaims
}

type Handler func(payload string)
