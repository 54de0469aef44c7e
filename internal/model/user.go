// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the label on a user record that determines permitted actions.
// The zero value is not a valid role; every stored user has one of the
// constants below.
type Role string

const (
	RoleMember    Role = "member"
	RolePartner   Role = "partner"
	RoleAdmin     Role = "admin"
	RoleCoFounder Role = "co-founder"
	RoleFounder   Role = "founder"
)

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RolePartner, RoleAdmin, RoleCoFounder, RoleFounder:
		return true
	}
	return false
}

// Leadership reports whether r is founder or co-founder. Several policy
// rules treat those two roles identically (assigning top roles, banning
// other leaders, managing application questions).
func (r Role) Leadership() bool {
	return r == RoleFounder || r == RoleCoFounder
}

// Staff reports whether r may moderate content and manage users
// (admin, co-founder, or founder).
func (r Role) Staff() bool {
	return r == RoleAdmin || r.Leadership()
}

// User represents a registered account.
//
// The first account ever created becomes the founder; everyone after
// that starts as a member. PasswordHash is empty for accounts created
// through GitHub OAuth (GitHubID non-zero), and GitHubID is zero for
// email/password accounts.
type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	AvatarURL     string    `json:"avatarUrl"`
	BackgroundURL string    `json:"backgroundUrl"`
	Bio           string    `json:"bio"`
	Theme         string    `json:"theme"`
	IsBanned      bool      `json:"isBanned"`
	GitHubID      int64     `json:"-"`
	Partner       *Partner  `json:"partnerInfo,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Partner holds the directory entry shown for users with the partner
// role: a short pitch and their outbound links.
type Partner struct {
	Description string   `json:"description"`
	Links       []string `json:"links"`
}
