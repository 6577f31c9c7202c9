package models

import (
	"time"
)

type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

type User struct {
	ID   uint     `json:"id" gorm:"primaryKey"`
	Name string   `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Role UserRole `json:"role" gorm:"not null;index" validate:"required,oneof=teacher student"`

	// Teachers sign in with username/password; students with name + login code.
	Username     *string `json:"username" gorm:"uniqueIndex;size:100"`
	PasswordHash *string `json:"-" gorm:"column:password_hash;size:255"`
	LoginCode    *string `json:"login_code,omitempty" gorm:"uniqueIndex;size:16"`

	// Students are provisioned by a teacher.
	CreatedBy *uint `json:"created_by,omitempty" gorm:"index"`

	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
