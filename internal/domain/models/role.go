// internal/domain/models/role.go
package models

import (
	"errors"
	"strings"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleDonor Role = "donor"
	RoleStaff Role = "staff"
)

// AllRoles lists every valid role in display order.
var AllRoles = []Role{RoleAdmin, RoleStaff, RoleDonor}

// ErrBadRole is returned by ParseRole for anything outside AllRoles.
var ErrBadRole = errors.New(`role must be "admin"|"donor"|"staff"`)

// ParseRole maps a user-supplied string onto a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleDonor:
		return RoleDonor, nil
	case RoleStaff:
		return RoleStaff, nil
	}
	return "", ErrBadRole
}

// Valid reports whether r is one of AllRoles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleStaff:
		return true
	}
	return false
}

// Privileged reports whether creating an account with this role needs an admin.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleStaff
}

func (r Role) String() string { return string(r) }
