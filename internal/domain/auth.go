package domain

import "strings"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes a role string from an upstream gateway. Unknown
// values degrade to employee, the least privileged role.
func ParseRole(value string) Role {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "admin":
		return RoleAdmin
	case "manager":
		return RoleManager
	default:
		return RoleEmployee
	}
}

// Level maps a role onto the document access-level scale.
func (r Role) Level() AccessLevel {
	switch r {
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleEmployee:
		return 1
	default:
		return 0
	}
}

// Principal is the already-resolved caller identity handed to the core.
// Authentication happens upstream; the core never sees tokens.
type Principal struct {
	Identity    string
	DisplayName string
	Email       string
	Role        Role
}
