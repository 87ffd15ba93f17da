package domain

import "fmt"

// Role is the authorization level attached to a profile. It is the sole
// input to route gating decisions.
//
// Usage: construct via ParseRole at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Role string

// Supported roles. The legacy "contributor" and "publisher" values were
// retired during the role-model cleanup; they no longer parse and therefore
// authorize nothing.
const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleReader Role = "reader"
)

// validRoles is the single source of truth for valid roles.
var validRoles = map[Role]bool{
	RoleAdmin:  true,
	RoleEditor: true,
	RoleReader: true,
}

// ParseRole constructs a Role from external input (database rows, config).
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", fmt.Errorf("role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// In reports membership of r in the given set. An invalid role is never a
// member, so an unparsed legacy value cannot satisfy a gate.
func (r Role) In(set []Role) bool {
	if !r.IsValid() {
		return false
	}
	for _, candidate := range set {
		if r == candidate {
			return true
		}
	}
	return false
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
