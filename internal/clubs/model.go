// Package clubs manages student clubs and their memberships.
package clubs

import "time"

// Club represents a student club.
type Club struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Logo        string    `json:"logo"`
	ContactInfo string    `json:"contact_info"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MemberRole is a position held inside a club. It carries no authority
// outside the club roster.
type MemberRole string

const (
	MemberRoleMember    MemberRole = "member"
	MemberRoleOfficer   MemberRole = "officer"
	MemberRolePresident MemberRole = "president"
)

// IsValid checks if the member role is valid.
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleMember, MemberRoleOfficer, MemberRolePresident:
		return true
	default:
		return false
	}
}

// Member links a user to a club.
type Member struct {
	ID       int64      `json:"id"`
	ClubID   int64      `json:"club_id"`
	UserID   int64      `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}
