package rbac

import "github.com/campusevents/campusevents/internal/roles"

// CanGrant reports whether an actor holding grants may hand out kind.
// System roles are reserved to super admins; club and user roles to any
// global admin.
func CanGrant(grants []roles.Grant, kind roles.Kind) bool {
	if kind.IsSystem() {
		return IsSuperAdmin(grants)
	}
	return IsGlobalAdmin(grants)
}

// CanRevoke reports whether an actor holding grants may remove target.
// Super admins may revoke anything, admins anything except super_admin.
func CanRevoke(grants []roles.Grant, target roles.Grant) bool {
	if IsSuperAdmin(grants) {
		return true
	}
	if target.Kind == roles.KindSuperAdmin {
		return false
	}
	return IsGlobalAdmin(grants)
}
