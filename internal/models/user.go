// Package models contains data structures for the forum's domain models.
package models

import "time"

// Role is the forum permission level of a user.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User is a forum member. Reputation is only changed by like toggles.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:191;not null;uniqueIndex" json:"-"`
	Username   string    `gorm:"size:100;not null" json:"username"`
	Role       Role      `gorm:"type:varchar(16);not null;default:'USER'" json:"role"`
	Reputation int       `gorm:"not null;default:0" json:"reputation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UserProfile is the public read model of a user with derived counts.
type UserProfile struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Role        Role      `json:"role"`
	Reputation  int       `json:"reputation"`
	ThreadCount int64     `json:"thread_count"`
	PostCount   int64     `json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// Caller is the resolved identity of the user behind a request.
// A nil *Caller is an anonymous request.
type Caller struct {
	UserID uint
	Role   Role
}

// Authenticated reports whether the caller carries an identity.
func (c *Caller) Authenticated() bool {
	return c != nil && c.UserID != 0
}

// IsAdmin reports whether the caller has the ADMIN role.
func (c *Caller) IsAdmin() bool {
	return c.Authenticated() && c.Role == RoleAdmin
}

// IsStaff reports whether the caller is a moderator or an admin.
func (c *Caller) IsStaff() bool {
	return c.Authenticated() && (c.Role == RoleModerator || c.Role == RoleAdmin)
}

// Owns reports whether the caller authored the entity owned by authorID.
func (c *Caller) Owns(authorID uint) bool {
	return c.Authenticated() && c.UserID == authorID
}
