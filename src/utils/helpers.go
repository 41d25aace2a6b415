package utils

import (
	"log"
	"lrbs/src/db"
	"lrbs/src/models"
	"lrbs/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

func applyRequestFilters(q *gorm.DB, filters *types.RequestsQueryFilters) *gorm.DB {
	if filters == nil {
		return q
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Kind != "" {
		q = q.Where("kind = ?", filters.Kind)
	}
	return q
}

// GetOwnRequests lists the requester's own requests, newest first.
func GetOwnRequests(userId uint, filters *types.RequestsQueryFilters) ([]models.Request, error) {
	conn := db.GetDb()
	var requests []models.Request
	q := conn.
		Model(&models.Request{}).
		Where("requester_id = ?", userId).
		Preload("Lab").
		Preload("Decisions").
		Preload("Items").
		Preload("Extensions").
		Order("created_at desc")
	q = applyRequestFilters(q, filters)
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// GetDeptRequests lists every request in a department, for reviewer views.
func GetDeptRequests(deptId uint, filters *types.RequestsQueryFilters) ([]models.Request, error) {
	conn := db.GetDb()
	var requests []models.Request
	q := conn.
		Model(&models.Request{}).
		Where("department_id = ?", deptId).
		Preload("Requester").
		Preload("Lab").
		Preload("Decisions").
		Order("created_at desc")
	q = applyRequestFilters(q, filters)
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// GetActionableRequests lists what the acting user can decide right now.
// Faculty see their department's pending_faculty queue, lab staff the
// resource review queue, and the final authority only requests whose
// snapshot points at them.
func GetActionableRequests(userId uint, role types.Role, deptId uint) ([]models.Request, error) {
	conn := db.GetDb()
	var requests []models.Request
	q := conn.
		Model(&models.Request{}).
		Preload("Requester").
		Preload("Lab").
		Preload("Decisions").
		Order("created_at asc")
	switch role {
	case types.ROLE_FACULTY:
		q = q.Where("department_id = ? AND status = ?", deptId, types.REQUEST_PENDING_FACULTY)
	case types.ROLE_LAB_STAFF:
		q = q.Where("department_id = ? AND status = ?", deptId, types.REQUEST_PENDING_RESOURCE_STAFF)
	case types.ROLE_HOD, types.ROLE_LAB_COORDINATOR:
		q = q.Where("authority_user_id = ? AND status = ?", userId, types.REQUEST_PENDING_FINAL_AUTHORITY)
	default:
		return []models.Request{}, nil
	}
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// RoleHasPermission consults the seeded grant table. Unknown roles or
// query failures deny.
func RoleHasPermission(role types.Role, permission string) bool {
	conn := db.GetDb()
	var count int64
	err := conn.
		Model(&models.RolePermission{}).
		Where("role = ? AND permission = ?", role, permission).
		Count(&count).Error
	if err != nil {
		log.Printf("Error checking permission %s for %s: %s\n", permission, role, err.Error())
		return false
	}
	return count > 0
}

// CreateNewLab registers a lab under a department with a URL-safe slug.
func CreateNewLab(params *types.CreateLabRequestBody, departmentId uint) (*models.Lab, error) {
	conn := db.GetDb()
	lab := models.Lab{
		Name:         params.Name,
		Slug:         slug.Make(params.Name),
		Location:     params.Location,
		Seats:        params.Seats,
		StaffID:      params.StaffID,
		DepartmentID: departmentId,
	}
	err := conn.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&lab).Error
	})
	if err != nil {
		log.Printf("Error creating lab: %s\n", err.Error())
		return nil, err
	}
	return &lab, nil
}
