package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CourseEvent is a dated entry on a course calendar
type CourseEvent struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description string    `json:"description" gorm:"size:2000"`
	Date        time.Time `json:"date" gorm:"not null;index"`
	Location    string    `json:"location" gorm:"size:255"`
	CourseID    string    `json:"course_id" gorm:"not null;size:36;index"`

	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CourseEvent) TableName() string {
	return "course_events"
}

func (e *CourseEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}
