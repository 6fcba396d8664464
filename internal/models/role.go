package models

// Role is the access level of a user
type Role string

// Role constants
const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleUser       Role = "user"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.Valid()
}
