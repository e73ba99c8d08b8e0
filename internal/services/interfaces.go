package services

import (
	"bytes"
	"context"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/course-service/internal/models"
)

// MembershipCoordinator owns every change to who belongs to a course. Each
// operation runs in one transaction holding the course row lock, so the
// course roster and the users' course lists never diverge.
type MembershipCoordinator interface {
	Enroll(ctx context.Context, courseID, userID string) (*models.CourseResponse, error)
	AssignInstructor(ctx context.Context, courseID, instructorID string) (*models.AssignInstructorResult, error)
	AssignCatedratico(ctx context.Context, courseID, catedraticoID string) (*models.CourseResponse, error)
	LeaveCourse(ctx context.Context, courseID, userID string) error
	RemoveUserFromCourse(ctx context.Context, courseID, userID string) (*models.CourseResponse, error)
	DeleteCourse(ctx context.Context, courseID string) error
	AddSection(ctx context.Context, courseID string, req *models.SectionRequest) (*models.CourseResponse, error)
}

type CourseService interface {
	Create(ctx context.Context, actorID string, req *models.CreateCourseRequest) (*models.CourseResponse, error)
	List(ctx context.Context, search string) ([]*models.CourseResponse, error)
	GetByID(ctx context.Context, courseID string) (*models.CourseDetailResponse, error)

	// UserCourses returns student, then instructor, then catedrático courses
	UserCourses(ctx context.Context, userID string) ([]*models.CourseResponse, error)
	CoursesAsStudent(ctx context.Context, userID string) ([]*models.CourseResponse, error)

	ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error)
}

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	CreateAdmin(ctx context.Context, req *models.CreateAdminRequest) (*models.User, error)

	Profile(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error)

	ChangeRole(ctx context.Context, actorID, userID string, req *models.ChangeRoleRequest) (*models.User, error)
	Delete(ctx context.Context, actorID, userID string) error
}

type RoleRequestService interface {
	Submit(ctx context.Context, userID string, req *models.RoleChangeRequest) (*models.RoleRequest, error)
	Approve(ctx context.Context, reviewerID, userID string) (*models.RoleRequest, error)
	Reject(ctx context.Context, reviewerID, userID string) (*models.RoleRequest, error)
	ListPending(ctx context.Context, reviewerID string) ([]models.PendingRoleRequest, error)
}

type CourseEventService interface {
	Create(ctx context.Context, req *models.CreateCourseEventRequest) (*models.CourseEvent, error)
	Update(ctx context.Context, eventID string, req *models.UpdateCourseEventRequest) (*models.CourseEvent, error)
	Delete(ctx context.Context, eventID string) error

	ListAll(ctx context.Context) ([]*models.CourseEvent, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.CourseEvent, error)
	// ListForUser returns events of the courses the user studies in
	ListForUser(ctx context.Context, userID string) ([]*models.CourseEvent, error)
}

type MessageService interface {
	Send(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error)
	Conversation(ctx context.Context, callerID, userID, contactID string) ([]*models.Message, error)
	// Subscribe streams messages pushed to userID until ctx is done
	Subscribe(ctx context.Context, userID string) (<-chan *message.Message, error)
}

type ServiceManager interface {
	Membership() MembershipCoordinator
	Course() CourseService
	User() UserService
	RoleRequest() RoleRequestService
	CourseEvent() CourseEventService
	Message() MessageService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
