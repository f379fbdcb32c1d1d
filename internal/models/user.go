package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user can hold. Moderators may edit or delete any review/comment,
// admins additionally manage the catalog and the user collection.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Role     string `gorm:"default:'user';not null" json:"role"`
	Bio      string `gorm:"type:text" json:"bio,omitempty"`

	// Confirmation-code state: bcrypt hash of the last issued code, when it was
	// issued and a counter that is bumped on every signup so stale codes stop
	// verifying. The code itself is never stored.
	ConfirmationCodeHash string    `gorm:"column:confirmation_code_hash" json:"-"`
	CodeIssuedAt         time.Time `json:"-"`
	CodeCounter          int64     `gorm:"default:0;not null" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (User) TableName() string {
	return "users"
}
