package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventSource  = "course-service"
	EventVersion = "1.0"
)

type EventType string

const (
	CourseCreated            EventType = "course.created"
	CourseDeleted            EventType = "course.deleted"
	CourseSectionAdded       EventType = "course.section_added"
	CourseStudentEnrolled    EventType = "course.student_enrolled"
	CourseInstructorAssigned EventType = "course.instructor_assigned"
	CourseCatedraticoAdded   EventType = "course.catedratico_assigned"
	CourseMemberLeft         EventType = "course.member_left"
	CourseMemberRemoved      EventType = "course.member_removed"

	UserRegistered  EventType = "user.registered"
	UserVerified    EventType = "user.verified"
	UserRoleChanged EventType = "user.role_changed"
	UserDeleted     EventType = "user.deleted"

	RoleRequestSubmitted EventType = "role_request.submitted"
	RoleRequestApproved  EventType = "role_request.approved"
	RoleRequestRejected  EventType = "role_request.rejected"

	CourseEventCreated EventType = "course_event.created"
	CourseEventUpdated EventType = "course_event.updated"
	CourseEventDeleted EventType = "course_event.deleted"

	MessageSent EventType = "message.sent"
)

// Event is the envelope published for every committed domain change
type Event struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Data      datatypes.JSONMap `json:"data"`
}

func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      datatypes.JSONMap(data),
	}
}

// EventPublisher delivers domain events. Services publish only after the
// transaction that produced the change has committed.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
