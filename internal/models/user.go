package models

import (
	"strings"
	"time"
)

const (
	RoleSuperuser = "superuser"
	RoleStaff     = "staff"
	RoleStudent   = "student"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	GoogleID     *string   `gorm:"uniqueIndex" json:"-"`
	IsVerified   bool      `gorm:"not null;default:false" json:"is_verified"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	IsStudent    bool      `gorm:"not null" json:"is_student"`
	IsSuperuser  bool      `gorm:"not null;default:false" json:"is_superuser"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (user User) Role() string {
	switch {
	case user.IsSuperuser:
		return RoleSuperuser
	case user.IsStaff:
		return RoleStaff
	default:
		return RoleStudent
	}
}

func (user User) CanManage() bool {
	return user.IsStaff || user.IsSuperuser
}

func (user User) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name == "" {
		return user.Email
	}
	return name
}
