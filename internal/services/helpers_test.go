package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	repo      *memRepository
	publisher *events.MockEventPublisher
	cache     *cache.CacheManager
	logger    *slog.Logger
	validator *validator.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := testLogger()
	return &fixture{
		repo:      newMemRepository(),
		publisher: events.NewMockEventPublisher(logger),
		logger:    logger,
		validator: validator.New(),
	}
}

func (f *fixture) coordinator() MembershipCoordinator {
	return NewMembershipCoordinator(f.repo, f.cache, f.publisher, f.logger, f.validator)
}

func (f *fixture) courses() CourseService {
	return NewCourseService(f.repo, f.cache, f.publisher, f.logger, f.validator)
}

func (f *fixture) addUser(t *testing.T, name string, role models.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:       name,
		Email:      name + "@example.com",
		Password:   "x",
		Role:       role,
		IsActive:   true,
		IsVerified: true,
	}
	require.NoError(t, f.repo.User().Create(context.Background(), user))
	return user
}

// addCourse stores a course directly; instructorID may be empty
func (f *fixture) addCourse(t *testing.T, title, instructorID string) string {
	t.Helper()
	ctx := context.Background()
	course := &models.Course{Title: title, Description: "Descripción de " + title}
	require.NoError(t, f.repo.Course().Create(ctx, course))
	if instructorID != "" {
		require.NoError(t, f.repo.Membership().Add(ctx, &models.CourseMembership{
			CourseID: course.ID,
			UserID:   instructorID,
			Role:     models.MembershipInstructor,
		}))
	}
	return course.ID
}

// coursesOf is the user-side view: the courses userID holds role in
func (f *fixture) coursesOf(t *testing.T, userID string, role models.MembershipRole) []string {
	t.Helper()
	memberships, err := f.repo.Membership().ListByUser(context.Background(), userID)
	require.NoError(t, err)
	ids := []string{}
	for _, m := range memberships {
		if m.Role == role {
			ids = append(ids, m.CourseID)
		}
	}
	return ids
}

func (f *fixture) roster(t *testing.T, courseID string) models.Roster {
	t.Helper()
	course, err := f.repo.Course().GetByID(context.Background(), courseID)
	require.NoError(t, err)
	return models.BuildRoster(course.Memberships)
}
