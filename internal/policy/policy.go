// Package policy holds the access decisions of the API.
//
// Every function is pure: it looks only at the caller's role, the caller's id and the owner of the
// resource, so the same decision can be taken by handlers, services or tests without any I/O.
package policy

import (
	"fmt"

	"github.com/financialmanagement/backend/internal/models"
)

// Visibility selects who may read transactions and reports
type Visibility string

const (
	// VisibilityRestricted lets plain users read only what they own
	VisibilityRestricted Visibility = "restricted"
	// VisibilityTransparent lets every authenticated user read every transaction and report
	VisibilityTransparent Visibility = "transparent"
)

// ParseVisibility converts a configuration value into a Visibility
func ParseVisibility(s string) (Visibility, error) {
	switch v := Visibility(s); v {
	case VisibilityRestricted, VisibilityTransparent:
		return v, nil
	default:
		return "", fmt.Errorf("unknown visibility %q, must be %q or %q", s, VisibilityRestricted, VisibilityTransparent)
	}
}

// CanRegisterUser reports whether the role may register new accounts
func CanRegisterUser(role models.Role) bool {
	return isAdmin(role)
}

// CanManageUsers reports whether the role may list, create, update and delete users
func CanManageUsers(role models.Role) bool {
	return isAdmin(role)
}

// CanManageTransactions reports whether the role may create, update and delete transactions
func CanManageTransactions(role models.Role) bool {
	return isStaff(role)
}

// CanViewTransaction reports whether the caller may read a transaction owned by ownerID
func CanViewTransaction(v Visibility, role models.Role, callerID, ownerID int) bool {
	if !role.Valid() {
		return false
	}
	switch v {
	case VisibilityTransparent:
		return true
	case VisibilityRestricted:
		return isStaff(role) || callerID == ownerID
	default:
		return false
	}
}

// CanListAllTransactions reports whether a listing for the caller needs no owner filter
func CanListAllTransactions(v Visibility, role models.Role) bool {
	if !role.Valid() {
		return false
	}
	switch v {
	case VisibilityTransparent:
		return true
	case VisibilityRestricted:
		return isStaff(role)
	default:
		return false
	}
}

// CanViewSummary reports whether the caller may read the organisation wide summary
func CanViewSummary(v Visibility, role models.Role) bool {
	return CanListAllTransactions(v, role)
}

// CanViewReport reports whether the caller may read the deposit report of targetUserID.
// Self access is always allowed.
func CanViewReport(v Visibility, role models.Role, callerID, targetUserID int) bool {
	return CanViewTransaction(v, role, callerID, targetUserID)
}

// Require turns a negative decision into models.ErrForbidden
func Require(allowed bool) error {
	if !allowed {
		return models.ErrForbidden
	}
	return nil
}

func isAdmin(role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleAccountant, models.RoleUser:
		return false
	default:
		return false
	}
}

func isStaff(role models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleAccountant:
		return true
	case models.RoleUser:
		return false
	default:
		return false
	}
}
