package domain

type Role string

const (
	RoleAnonymous  Role = "anonymous"
	RoleCommon     Role = "common"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole accepts only the roles a user record may hold.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCommon, RoleAdmin, RoleSuperAdmin:
		return Role(s), true
	}
	return RoleAnonymous, false
}

type Capability int

const (
	CapAuthenticated Capability = iota
	CapAdminOrAbove
	CapSuperAdmin
)

// Can reports whether role grants capability.
func Can(role Role, c Capability) bool {
	switch c {
	case CapAuthenticated:
		return role == RoleCommon || role == RoleAdmin || role == RoleSuperAdmin
	case CapAdminOrAbove:
		return role == RoleAdmin || role == RoleSuperAdmin
	case CapSuperAdmin:
		return role == RoleSuperAdmin
	}
	return false
}

// Identity is the caller resolved from a request. The zero value is anonymous.
type Identity struct {
	UserID   int64
	Username string
	Role     Role
}

func Anonymous() Identity { return Identity{Role: RoleAnonymous} }

func (i Identity) IsAnonymous() bool { return i.UserID == 0 || !Can(i.Role, CapAuthenticated) }

func (i Identity) Can(c Capability) bool { return !i.IsAnonymous() && Can(i.Role, c) }

// Owns reports whether the caller may act on a resource belonging to userID.
func (i Identity) Owns(userID int64) bool {
	return !i.IsAnonymous() && (i.UserID == userID || Can(i.Role, CapAdminOrAbove))
}
