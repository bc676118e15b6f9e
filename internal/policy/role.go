package policy

import "strings"

// Role is the normalized membership role tag.
type Role string

// Known roles. Customer and client share one policy branch (read-only,
// scope-gated); the labels stay distinct because the UI renders them
// differently.
const (
	RoleAdmin    Role = "admin"
	RoleMember   Role = "member"
	RoleCustomer Role = "customer"
	RoleClient   Role = "client"
)

// ParseRole normalizes a stored role string. The boolean reports whether the
// value belongs to the known set; unknown values always evaluate to deny.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleMember:
		return RoleMember, true
	case RoleCustomer:
		return RoleCustomer, true
	case RoleClient:
		return RoleClient, true
	default:
		return "", false
	}
}

// ReadOnly reports whether the role can never be granted a write, regardless
// of project scope.
func (r Role) ReadOnly() bool {
	return r == RoleCustomer || r == RoleClient
}

// DisplayName returns the UI label for the role. This is the only place the
// customer/client distinction matters.
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleMember:
		return "Member"
	case RoleCustomer:
		return "Customer"
	case RoleClient:
		return "Client"
	default:
		return ""
	}
}
