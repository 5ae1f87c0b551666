package domain

// Role identifies the capability tier of a directory user.
type Role string

// Role constants define the allowed user roles.
const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleAssociate  Role = "associate"
)

// ValidRoles returns the set of valid user roles.
func ValidRoles() []Role {
	return []Role{RoleAdmin, RoleSupervisor, RoleAssociate}
}

// IsValidRole checks whether the given role string is a valid user role.
func IsValidRole(role Role) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}
