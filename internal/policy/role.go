package policy

import (
	dErrors "fedbridge/pkg/domain-errors"
)

// Role is the closed set of federation roles. Every role except offspring is
// sovereign: the platform never imposes a spending ceiling on it.
type Role string

const (
	RoleAdult     Role = "adult"
	RoleSteward   Role = "steward"
	RoleGuardian  Role = "guardian"
	RolePrivate   Role = "private"
	RoleOffspring Role = "offspring"
)

// legacyRoles maps role strings from older sessions to the current set.
// Conversion happens once at the authentication boundary; the policy engine
// only ever sees current roles.
var legacyRoles = map[string]Role{
	"parent": RoleAdult,
	"child":  RoleOffspring,
	"teen":   RoleOffspring,
}

// ParseRole converts a role string from a session or request into a Role.
// Unknown strings are an error; callers decide whether that fails closed.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdult, RoleSteward, RoleGuardian, RolePrivate, RoleOffspring:
		return Role(s), nil
	}
	if r, ok := legacyRoles[s]; ok {
		return r, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
}

// Sovereign reports whether the role has unlimited authority over its own
// wallet. Unknown roles are not sovereign.
func (r Role) Sovereign() bool {
	switch r {
	case RoleAdult, RoleSteward, RoleGuardian, RolePrivate:
		return true
	}
	return false
}

// Known reports whether the role belongs to the closed set.
func (r Role) Known() bool {
	return r.Sovereign() || r == RoleOffspring
}

// CanApprove reports whether the role may counter-sign a dependent swap.
func (r Role) CanApprove() bool {
	return r == RoleSteward || r == RoleGuardian
}

// AuthContext is the authenticated caller identity supplied by the session
// validator. SubjectHandle is the raw account handle; it is hashed before it
// appears in any persisted or returned record.
type AuthContext struct {
	Authenticated bool
	Role          Role
	SubjectHandle string
}
