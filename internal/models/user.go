package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string
type Role = UserRole

const (
	RoleStudent     UserRole = "student"
	RoleInstructor  UserRole = "instructor"
	RoleCatedratico UserRole = "catedratico"
	RoleAdmin       UserRole = "admin"
)

const DefaultPhotoURL = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

// AssignableRoles are the roles an admin may set through a role change.
// Admins are only created through the bootstrap endpoint.
var AssignableRoles = []UserRole{RoleStudent, RoleInstructor, RoleCatedratico}

func (r UserRole) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleCatedratico, RoleAdmin:
		return true
	}
	return false
}

func (r UserRole) IsAssignable() bool {
	for _, assignable := range AssignableRoles {
		if r == assignable {
			return true
		}
	}
	return false
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:36"`
	Name     string   `json:"name" gorm:"not null;size:100"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password string   `json:"-" gorm:"not null;size:255"`
	Photo    string   `json:"photo" gorm:"size:500"`
	Role     UserRole `json:"role" gorm:"not null;size:20;default:student;index"`

	IsActive              bool       `json:"is_active" gorm:"default:true"`
	IsVerified            bool       `json:"is_verified" gorm:"default:false;index"`
	VerificationCode      string     `json:"-" gorm:"size:12"`
	VerificationExpiresAt *time.Time `json:"-" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Photo == "" {
		u.Photo = DefaultPhotoURL
	}
	if u.Role == "" {
		u.Role = RoleStudent
	}
	return nil
}

// UserSummary is the public projection used when populating rosters
type UserSummary struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
