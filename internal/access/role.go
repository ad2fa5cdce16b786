package access

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned by ParseRole for values outside the hierarchy.
var ErrUnknownRole = errors.New("unknown role")

// Role is a member's privilege level within a project or organization.
type Role string

const (
	RoleTranslator Role = "translator"
	RoleDeveloper  Role = "developer"
	RoleManager    Role = "manager"
	RoleOwner      Role = "owner"
)

// Roles lists every role from least to most privileged.
var Roles = []Role{RoleTranslator, RoleDeveloper, RoleManager, RoleOwner}

// ParseRole converts a stored or submitted value into a Role.
// Unknown values are rejected rather than mapped to a default.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	return Rank(r) > 0
}

func (r Role) String() string {
	return string(r)
}

// Rank returns the position of r in the hierarchy, 1 for Translator through 4
// for Owner. Unknown roles rank 0 and lose every comparison.
func Rank(r Role) int {
	switch r {
	case RoleTranslator:
		return 1
	case RoleDeveloper:
		return 2
	case RoleManager:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

func IsHigherOrEqual(a, b Role) bool {
	return a.Valid() && Rank(a) >= Rank(b)
}

func IsStrictlyHigher(a, b Role) bool {
	return a.Valid() && Rank(a) > Rank(b)
}

func IsManagerOrHigher(r Role) bool {
	return IsHigherOrEqual(r, RoleManager)
}

func IsOwner(r Role) bool {
	return r == RoleOwner
}
