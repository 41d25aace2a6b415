package models

import (
	"lrbs/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserLinksDepartmentByPointer(t *testing.T) {
	hod := User{ID: 3, Role: types.ROLE_HOD}
	dept := Department{ID: 1, FinalAuthority: types.AUTHORITY_HOD, HODID: hod.ID, HOD: hod}
	user := User{ID: 7, DepartmentID: dept.ID, Department: &dept}

	assert.Equal(t, dept.ID, user.Department.ID)
	assert.Equal(t, hod.ID, user.Department.HOD.ID)
}

func TestDepartmentAuthorityResolution(t *testing.T) {
	dept := Department{FinalAuthority: types.AUTHORITY_HOD, HODID: 3, CoordinatorID: 5}
	assert.Equal(t, uint(3), dept.AuthorityUserID())
	assert.Equal(t, types.ROLE_HOD, dept.AuthorityRole())

	dept.FinalAuthority = types.AUTHORITY_LAB_COORDINATOR
	assert.Equal(t, uint(5), dept.AuthorityUserID())
	assert.Equal(t, types.ROLE_LAB_COORDINATOR, dept.AuthorityRole())
}
