package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
)

type CourseEventPostgreSQL struct {
	db *gorm.DB
}

func NewCourseEventPostgreSQL(db *gorm.DB) repositories.CourseEventRepository {
	return &CourseEventPostgreSQL{db: db}
}

func (e *CourseEventPostgreSQL) Create(ctx context.Context, event *models.CourseEvent) error {
	if err := e.db.WithContext(ctx).Omit("Course").Create(event).Error; err != nil {
		return handleDBError(err, "create course event")
	}
	return nil
}

func (e *CourseEventPostgreSQL) GetByID(ctx context.Context, id string) (*models.CourseEvent, error) {
	var event models.CourseEvent
	if err := e.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, handleDBError(err, "get course event")
	}
	return &event, nil
}

func (e *CourseEventPostgreSQL) Update(ctx context.Context, event *models.CourseEvent) error {
	if err := e.db.WithContext(ctx).Omit("Course").Save(event).Error; err != nil {
		return handleDBError(err, "update course event")
	}
	return nil
}

func (e *CourseEventPostgreSQL) Delete(ctx context.Context, id string) error {
	result := e.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CourseEvent{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete course event")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete course event")
	}
	return nil
}

func (e *CourseEventPostgreSQL) List(ctx context.Context) ([]*models.CourseEvent, error) {
	var events []*models.CourseEvent
	if err := e.db.WithContext(ctx).Order("date ASC").Find(&events).Error; err != nil {
		return nil, handleDBError(err, "list course events")
	}
	return events, nil
}

func (e *CourseEventPostgreSQL) ListByCourses(ctx context.Context, courseIDs []string) ([]*models.CourseEvent, error) {
	if len(courseIDs) == 0 {
		return []*models.CourseEvent{}, nil
	}

	var events []*models.CourseEvent
	err := e.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, handleDBError(err, "list course events by courses")
	}
	return events, nil
}

func (e *CourseEventPostgreSQL) DeleteByCourse(ctx context.Context, courseID string) error {
	if err := e.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&models.CourseEvent{}).Error; err != nil {
		return handleDBError(err, "delete course events")
	}
	return nil
}

// ===== MESSAGES =====

type MessagePostgreSQL struct {
	db *gorm.DB
}

func NewMessagePostgreSQL(db *gorm.DB) repositories.MessageRepository {
	return &MessagePostgreSQL{db: db}
}

func (m *MessagePostgreSQL) Create(ctx context.Context, message *models.Message) error {
	if err := m.db.WithContext(ctx).Create(message).Error; err != nil {
		return handleDBError(err, "create message")
	}
	return nil
}

func (m *MessagePostgreSQL) Conversation(ctx context.Context, userID, contactID string) ([]*models.Message, error) {
	var messages []*models.Message
	err := m.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			userID, contactID, contactID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, handleDBError(err, "get conversation")
	}
	return messages, nil
}
