// Package authz is the single authorization decision procedure. It does no
// I/O: callers resolve the resource owner first and pass the claims they
// already trust.
package authz

import "github.com/geocoder89/ledgerhub/internal/domain/role"

type Decision uint8

const (
	Allow Decision = iota
	DenyMissingRole
	DenyNotOwner
)

func (d Decision) Allowed() bool { return d == Allow }

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyMissingRole:
		return "deny_missing_role"
	case DenyNotOwner:
		return "deny_not_owner"
	}
	return "deny"
}

// Authorize decides whether callerID holding callerRoles may act on a resource
// owned by resourceOwnerID that requires one of requiredRoles.
//
// ROLE_ADMIN allows unconditionally. Otherwise the caller needs at least one
// required role and must own the resource.
func Authorize(callerRoles, requiredRoles role.Set, resourceOwnerID, callerID string) Decision {
	if callerRoles.Has(role.Admin) {
		return Allow
	}

	if !callerRoles.Intersects(requiredRoles) {
		return DenyMissingRole
	}

	if callerID == "" || resourceOwnerID != callerID {
		return DenyNotOwner
	}

	return Allow
}

// AuthorizeAdmin is used for admin-only operations, where there is no
// narrower owner than the admin role itself.
func AuthorizeAdmin(callerRoles role.Set) Decision {
	return Authorize(callerRoles, role.NewSet(role.Admin), "", "")
}
