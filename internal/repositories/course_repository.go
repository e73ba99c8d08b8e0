package repositories

import (
	"context"

	"github.com/SAP-F-2025/course-service/internal/models"
)

type CourseFilters struct {
	Search    string // case-insensitive title substring
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	// GetByID loads the course with its sections and memberships
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// LockByID takes a row lock on the course for the rest of the transaction
	LockByID(ctx context.Context, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error)
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type SectionRepository interface {
	Create(ctx context.Context, section *models.Section) error
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Section, error)
	DeleteByCourse(ctx context.Context, courseID string) error
}

// MembershipRepository owns the course_memberships relation. Course rosters
// and per-user course lists are both answered from here.
type MembershipRepository interface {
	Add(ctx context.Context, membership *models.CourseMembership) error
	// Remove deletes one membership and reports whether it existed
	Remove(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error)
	Exists(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error)
	GetInstructor(ctx context.Context, courseID string) (*models.CourseMembership, error)

	ListByCourse(ctx context.Context, courseID string) ([]models.CourseMembership, error)
	ListByUser(ctx context.Context, userID string) ([]models.CourseMembership, error)

	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type CourseEventRepository interface {
	Create(ctx context.Context, event *models.CourseEvent) error
	GetByID(ctx context.Context, id string) (*models.CourseEvent, error)
	Update(ctx context.Context, event *models.CourseEvent) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.CourseEvent, error)
	ListByCourses(ctx context.Context, courseIDs []string) ([]*models.CourseEvent, error)
	DeleteByCourse(ctx context.Context, courseID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	// Conversation returns messages exchanged between two users, oldest first
	Conversation(ctx context.Context, userID, contactID string) ([]*models.Message, error)
}
