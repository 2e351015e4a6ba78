// Package roles holds role grants: which user holds which role, optionally
// scoped to a club. It stores and validates grants but makes no authorization
// decisions.
package roles

import "time"

// Kind is the closed set of role kinds.
type Kind string

const (
	KindSuperAdmin  Kind = "super_admin"  // Full authority, manages system roles
	KindAdmin       Kind = "admin"        // Global authority over clubs and content
	KindClubManager Kind = "club_manager" // Authority over one club
	KindUser        Kind = "user"         // No elevated authority
)

// IsValid checks if the kind belongs to the closed set.
func (k Kind) IsValid() bool {
	switch k {
	case KindSuperAdmin, KindAdmin, KindClubManager, KindUser:
		return true
	default:
		return false
	}
}

// IsSystem reports whether the kind is a global administrative role.
func (k Kind) IsSystem() bool {
	return k == KindSuperAdmin || k == KindAdmin
}

// RequiresClub reports whether grants of this kind must carry a club scope.
func (k Kind) RequiresClub() bool {
	return k == KindClubManager
}

// Grant is one role held by one user.
type Grant struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"role_type"`
	ClubID    *int64    `json:"club_id,omitempty"`
	GrantedAt time.Time `json:"granted_at"`
}

// ScopedTo reports whether the grant is a club_manager grant for clubID.
func (g Grant) ScopedTo(clubID int64) bool {
	return g.Kind == KindClubManager && g.ClubID != nil && *g.ClubID == clubID
}

// ValidateScope checks that kind and clubID agree: club_manager needs a club,
// every other kind must not carry one.
func ValidateScope(kind Kind, clubID *int64) error {
	if !kind.IsValid() {
		return ErrUnknownKind
	}
	if kind.RequiresClub() {
		if clubID == nil || *clubID <= 0 {
			return ErrClubScopeRequired
		}
		return nil
	}
	if clubID != nil {
		return ErrClubScopeNotAllowed
	}
	return nil
}
