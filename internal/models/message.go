package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SenderID    string    `json:"sender" gorm:"not null;size:36;index:idx_messages_pair"`
	RecipientID string    `json:"recipient" gorm:"not null;size:36;index:idx_messages_pair"`
	Body        string    `json:"message" gorm:"column:message;not null;type:text"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// AllModels lists every persisted model, in dependency order, for migration
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Section{},
		&CourseMembership{},
		&RoleRequest{},
		&CourseEvent{},
		&Message{},
	}
}
