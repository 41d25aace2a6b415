package workflow

import (
	"lrbs/src/types"
)

// EntryStatus is where a freshly submitted request enters the chain.
// Students pass through the full three steps; every staff-equivalent role
// substitutes for the faculty step and enters at resource staff review.
func EntryStatus(role types.Role) types.RequestStatus {
	switch role {
	case types.ROLE_STUDENT:
		return types.REQUEST_PENDING_FACULTY
	case types.ROLE_FACULTY,
		types.ROLE_LAB_STAFF,
		types.ROLE_HOD,
		types.ROLE_LAB_COORDINATOR,
		types.ROLE_TNP,
		types.ROLE_OFFICE_STAFF:
		return types.REQUEST_PENDING_RESOURCE_STAFF
	}
	return types.REQUEST_PENDING_FACULTY
}

// ResolveChain returns the ordered pending steps a requester of the given
// role must clear before approval.
func ResolveChain(role types.Role) []types.RequestStatus {
	if role == types.ROLE_STUDENT {
		return []types.RequestStatus{
			types.REQUEST_PENDING_FACULTY,
			types.REQUEST_PENDING_RESOURCE_STAFF,
			types.REQUEST_PENDING_FINAL_AUTHORITY,
		}
	}
	return []types.RequestStatus{
		types.REQUEST_PENDING_RESOURCE_STAFF,
		types.REQUEST_PENDING_FINAL_AUTHORITY,
	}
}

// RequiredRole maps a pending status to the role allowed to decide it.
// The final step depends on the authority snapshotted on the request.
func RequiredRole(status types.RequestStatus, authority types.FinalAuthority) (types.Role, bool) {
	switch status {
	case types.REQUEST_PENDING_FACULTY:
		return types.ROLE_FACULTY, true
	case types.REQUEST_PENDING_RESOURCE_STAFF:
		return types.ROLE_LAB_STAFF, true
	case types.REQUEST_PENDING_FINAL_AUTHORITY:
		if authority == types.AUTHORITY_LAB_COORDINATOR {
			return types.ROLE_LAB_COORDINATOR, true
		}
		return types.ROLE_HOD, true
	}
	return "", false
}

// IsTerminal reports whether no further primary-chain transition exists.
func IsTerminal(status types.RequestStatus) bool {
	return status == types.REQUEST_REJECTED || status == types.REQUEST_RETURNED
}

// IsPending reports whether the request is still inside the approval chain,
// which is also the withdrawal window.
func IsPending(status types.RequestStatus) bool {
	switch status {
	case types.REQUEST_PENDING_FACULTY,
		types.REQUEST_PENDING_RESOURCE_STAFF,
		types.REQUEST_PENDING_FINAL_AUTHORITY:
		return true
	}
	return false
}
