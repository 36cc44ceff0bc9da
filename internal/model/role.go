package model

import "fmt"

// Role closed set of account roles
type Role string

const (
	RoleAdmin   Role = "admin"   // manages accounts, sees every unit
	RoleJR      Role = "jr"      // jefe de retén: records attendance for their unit
	RoleBF      Role = "bf"      // bombero forestal
	RolePending Role = "pending" // self-registered, waiting for an admin to assign a role
)

// AllRoles every valid role, in display order
var AllRoles = []Role{RoleAdmin, RoleJR, RoleBF, RolePending}

// ParseRole converts a stored or claimed role string; unknown values are rejected
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleJR, RoleBF, RolePending:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports membership in the closed set
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// IsActive pending accounts cannot use anything beyond /auth
func (r Role) IsActive() bool {
	switch r {
	case RoleAdmin, RoleJR, RoleBF:
		return true
	case RolePending:
		return false
	default:
		return false
	}
}

// CanManageAccounts account and organisation administration
func (r Role) CanManageAccounts() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleJR, RoleBF, RolePending:
		return false
	default:
		return false
	}
}

// CanRecordAttendance daily attendance entry for other users
func (r Role) CanRecordAttendance() bool {
	switch r {
	case RoleAdmin, RoleJR:
		return true
	case RoleBF, RolePending:
		return false
	default:
		return false
	}
}

// CanRequestLeave leave and comp-day requests for oneself
func (r Role) CanRequestLeave() bool {
	switch r {
	case RoleJR, RoleBF:
		return true
	case RoleAdmin, RolePending:
		return false
	default:
		return false
	}
}

// Strings converts roles for middleware and binding tags
func Strings(roles ...Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
