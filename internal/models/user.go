// Package models contains data structures for the application's domain models.
package models

import "time"

// Role governs authorization for administrative actions.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// User represents an account in the PhotoShare application.
// Users are never hard-deleted; moderation uses the Banned flag instead.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"size:250;uniqueIndex;not null" json:"email"`
	FirstName    string `gorm:"size:250;not null" json:"first_name"`
	LastName     string `gorm:"size:250;not null" json:"last_name"`
	Password     string `gorm:"size:255;not null" json:"-"`
	Role         Role   `gorm:"size:20;not null;default:user" json:"role"`
	Banned       bool   `gorm:"not null;default:false" json:"banned"`
	Avatar       string `gorm:"size:255" json:"avatar"`
	RefreshToken string `gorm:"size:255" json:"-"`
	Confirmed    bool   `gorm:"not null;default:false" json:"confirmed"`
	// PostsCount is not persisted; computed at query time
	PostsCount int `gorm:"-" json:"posts_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int       `gorm:"-" json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Posts         []Post    `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModerate reports whether the user may act on other users' content.
func (u *User) CanModerate() bool {
	return u.Role == RoleAdmin || u.Role == RoleModerator
}
