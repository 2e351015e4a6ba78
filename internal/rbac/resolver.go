// Package rbac decides what a set of role grants allows. Every decision is a
// pure function of the grants it is given.
package rbac

import "github.com/campusevents/campusevents/internal/roles"

// ClubOwned is anything attributed to a single club.
type ClubOwned interface {
	OwningClubID() int64
}

// IsGlobalAdmin reports whether grants include admin or super_admin.
func IsGlobalAdmin(grants []roles.Grant) bool {
	for _, g := range grants {
		if g.Kind.IsSystem() {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether grants include super_admin.
func IsSuperAdmin(grants []roles.Grant) bool {
	for _, g := range grants {
		if g.Kind == roles.KindSuperAdmin {
			return true
		}
	}
	return false
}

// ManagedClubs returns the club ids the grants manage through club_manager
// grants, deduplicated in grant order.
func ManagedClubs(grants []roles.Grant) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	for _, g := range grants {
		if g.Kind != roles.KindClubManager || g.ClubID == nil {
			continue
		}
		if _, ok := seen[*g.ClubID]; ok {
			continue
		}
		seen[*g.ClubID] = struct{}{}
		ids = append(ids, *g.ClubID)
	}
	return ids
}

// CanManageClub reports whether grants give authority over clubID.
func CanManageClub(grants []roles.Grant, clubID int64) bool {
	for _, g := range grants {
		if g.Kind.IsSystem() || g.ScopedTo(clubID) {
			return true
		}
	}
	return false
}

// CanReviewContentRequests reports whether grants may approve or reject
// content requests submitted for clubID.
func CanReviewContentRequests(grants []roles.Grant, clubID int64) bool {
	return CanManageClub(grants, clubID)
}

// VisibleContentRequests filters requests down to those the grants may see.
// Global admins see everything, club managers see their clubs, everyone else
// sees nothing. Input order is preserved.
func VisibleContentRequests[T ClubOwned](grants []roles.Grant, requests []T) []T {
	visible := make([]T, 0, len(requests))
	if IsGlobalAdmin(grants) {
		return append(visible, requests...)
	}
	managed := ManagedClubs(grants)
	if len(managed) == 0 {
		return visible
	}
	scope := make(map[int64]struct{}, len(managed))
	for _, id := range managed {
		scope[id] = struct{}{}
	}
	for _, req := range requests {
		if _, ok := scope[req.OwningClubID()]; ok {
			visible = append(visible, req)
		}
	}
	return visible
}
