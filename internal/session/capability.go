package session

import "strings"

// Capability is the role-derived permission set of a session.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityViewer
	CapabilityAdmin
)

func (c Capability) String() string {
	switch c {
	case CapabilityAdmin:
		return "admin"
	case CapabilityViewer:
		return "viewer"
	default:
		return "none"
	}
}

// CapabilityFromRoles resolves backend role names. Admin wins when both are
// present; unknown roles grant nothing.
func CapabilityFromRoles(roles []string) Capability {
	capability := CapabilityNone
	for _, role := range roles {
		switch strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(role)), "ROLE_") {
		case "ADMIN":
			return CapabilityAdmin
		case "USER":
			capability = CapabilityViewer
		}
	}
	return capability
}
