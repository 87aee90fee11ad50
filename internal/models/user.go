package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleDoctor  UserRole = "doctor"
	RolePatient UserRole = "patient"
)

// ValidRoles is the closed set of roles the service accepts. Role is fixed at
// account creation and never changes afterwards.
var ValidRoles = []UserRole{RoleAdmin, RoleDoctor, RolePatient}

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"not null;size:120"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role     UserRole `json:"role" gorm:"not null;size:20;index"`

	// Doctor profile
	Specialization *string `json:"specialization,omitempty" gorm:"size:120"`

	// Patient profile
	Age     *int    `json:"age,omitempty"`
	Gender  *string `json:"gender,omitempty" gorm:"size:10"`
	Phone   *string `json:"phone,omitempty" gorm:"size:50"`
	Address *string `json:"address,omitempty" gorm:"size:255"`

	// Status
	IsActive bool `json:"is_active" gorm:"not null;default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsDoctor() bool {
	return u.Role == RoleDoctor
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}
