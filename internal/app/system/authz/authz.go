// Package authz holds capability predicates over a verified identity's role.
// Call sites ask for a capability rather than comparing role strings.
package authz

import "github.com/dalemusser/donationhub/internal/domain/models"

// Capability names a class of operations guarded by the access gate.
type Capability int

const (
	// CapAuthenticated is held by every user with a valid token.
	CapAuthenticated Capability = iota + 1
	// CapAdmin guards case management and reporting.
	CapAdmin
	// CapAssignRoles allows registering accounts with a privileged role.
	CapAssignRoles
)

func (c Capability) String() string {
	switch c {
	case CapAuthenticated:
		return "authenticated"
	case CapAdmin:
		return "admin"
	case CapAssignRoles:
		return "assign-roles"
	default:
		return "unknown"
	}
}

// Allows reports whether a user holding role has capability c.
// Roles outside the closed enumeration hold nothing.
func Allows(role models.Role, c Capability) bool {
	if !role.Valid() {
		return false
	}
	switch c {
	case CapAuthenticated:
		return true
	case CapAdmin, CapAssignRoles:
		return role == models.RoleAdmin
	default:
		return false
	}
}
