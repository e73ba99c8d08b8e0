package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID          string                      `json:"id" gorm:"primaryKey;size:36"`
	Title       string                      `json:"title" gorm:"not null;size:100;index"`
	Description string                      `json:"description" gorm:"not null;size:1000"`
	Tags        datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`

	Sections    []Section          `json:"sections" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Memberships []CourseMembership `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

type ResourceType string

const (
	ResourceLink ResourceType = "link"
	ResourceFile ResourceType = "file"
)

type Resource struct {
	Type ResourceType `json:"type"`
	URL  string       `json:"url"`
}

type Section struct {
	ID        uint                          `json:"id" gorm:"primaryKey"`
	CourseID  string                        `json:"course_id" gorm:"not null;size:36;index"`
	Title     string                        `json:"title" gorm:"not null;size:200"`
	Order     int                           `json:"order" gorm:"column:position;not null"`
	Resources datatypes.JSONSlice[Resource] `json:"resources" gorm:"type:jsonb"`
	CreatedAt time.Time                     `json:"created_at"`
}

func (Section) TableName() string {
	return "course_sections"
}

type MembershipRole string

const (
	MembershipStudent     MembershipRole = "student"
	MembershipInstructor  MembershipRole = "instructor"
	MembershipCatedratico MembershipRole = "catedratico"
)

// CourseMembership is the only record of who belongs to a course and how.
// Course rosters and per-user course lists are both read from it. The
// partial unique index keeps at most one instructor per course.
type CourseMembership struct {
	CourseID  string         `json:"course_id" gorm:"primaryKey;size:36;uniqueIndex:idx_course_single_instructor,where:role = 'instructor'"`
	UserID    string         `json:"user_id" gorm:"primaryKey;size:36;index"`
	Role      MembershipRole `json:"role" gorm:"primaryKey;size:20"`
	CreatedAt time.Time      `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (CourseMembership) TableName() string {
	return "course_memberships"
}

// Roster is the role-partitioned view of a course's memberships
type Roster struct {
	Instructor   *string  `json:"instructor"`
	Catedraticos []string `json:"catedraticos"`
	Students     []string `json:"students"`
}

func BuildRoster(memberships []CourseMembership) Roster {
	roster := Roster{Catedraticos: []string{}, Students: []string{}}
	for _, m := range memberships {
		switch m.Role {
		case MembershipInstructor:
			id := m.UserID
			roster.Instructor = &id
		case MembershipCatedratico:
			roster.Catedraticos = append(roster.Catedraticos, m.UserID)
		case MembershipStudent:
			roster.Students = append(roster.Students, m.UserID)
		}
	}
	return roster
}

func (r Roster) HasStudent(userID string) bool {
	return containsID(r.Students, userID)
}

func (r Roster) HasCatedratico(userID string) bool {
	return containsID(r.Catedraticos, userID)
}

func (r Roster) IsInstructor(userID string) bool {
	return r.Instructor != nil && *r.Instructor == userID
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
