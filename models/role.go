package models

import "strings"

// Role is the CMS role carried by the visitor identity.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleMentor      Role = "mentor"
	RoleAdmin       Role = "admin"
	RoleSuperAdmin  Role = "superadmin"
)

// ParseRole normalises a role string; unknown values map to participant.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMentor:
		return RoleMentor
	case RoleAdmin:
		return RoleAdmin
	case RoleSuperAdmin:
		return RoleSuperAdmin
	default:
		return RoleParticipant
	}
}

// CanRead reports whether the role may open the CMS at all.
func CanRead(r Role) bool {
	return r == RoleMentor || r == RoleAdmin || r == RoleSuperAdmin
}

// CanWrite reports whether the role may change CMS data. Mentors are read-only.
func CanWrite(r Role) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
