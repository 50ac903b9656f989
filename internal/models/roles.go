package models

// Role is the closed set of authorization tags a user can carry.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleInvestor Role = "investor"
	RoleStartup  Role = "startup"
	RoleUser     Role = "user"
)

// DefaultRole is assigned when registration omits a role.
const DefaultRole = RoleUser

// Roles lists every valid role in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleInvestor, RoleStartup, RoleUser}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInvestor, RoleStartup, RoleUser:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
