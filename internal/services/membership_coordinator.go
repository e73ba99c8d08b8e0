package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

type membershipCoordinator struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMembershipCoordinator(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) MembershipCoordinator {
	return &membershipCoordinator{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// lockCourse takes the course row lock for the rest of the transaction
func lockCourse(ctx context.Context, tx repositories.Repository, courseID, notFoundMessage string) (*models.Course, error) {
	if courseID == "" {
		return nil, NewNotFoundError("course", courseID, notFoundMessage)
	}
	course, err := tx.Course().LockByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID, notFoundMessage)
		}
		return nil, fmt.Errorf("failed to lock course: %w", err)
	}
	return course, nil
}

// reload reads the course back inside the transaction so the response
// reflects exactly what is about to commit
func reload(ctx context.Context, tx repositories.Repository, courseID string) (*models.CourseResponse, error) {
	course, err := tx.Course().GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload course: %w", err)
	}
	return models.NewCourseResponse(course), nil
}

// committed runs the post-commit side effects of a membership change.
// userIDs is the course audience gathered inside the transaction.
func (s *membershipCoordinator) committed(ctx context.Context, eventType events.EventType, courseID string, data map[string]interface{}, userIDs ...string) {
	cache.InvalidateCourseCache(ctx, s.cache, courseID, userIDs...)

	if data == nil {
		data = map[string]interface{}{}
	}
	data["course_id"] = courseID
	publishEvent(ctx, s.publisher, s.logger, eventType, data)
}

func (s *membershipCoordinator) Enroll(ctx context.Context, courseID, userID string) (*models.CourseResponse, error) {
	s.logger.InfoContext(ctx, "Enrolling student", "course_id", courseID, "user_id", userID)

	var (
		response *models.CourseResponse
		audience []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotExists); err != nil {
			return err
		}
		if _, err := findUser(ctx, tx, userID, MsgUserNotFound); err != nil {
			return err
		}

		isInstructor, err := tx.Membership().Exists(ctx, courseID, userID, models.MembershipInstructor)
		if err != nil {
			return fmt.Errorf("failed to check instructor membership: %w", err)
		}
		if isInstructor {
			return NewBusinessRuleError("instructor_cannot_enroll", MsgInstructorCannotEnroll,
				map[string]interface{}{"course_id": courseID, "user_id": userID})
		}

		isStudent, err := tx.Membership().Exists(ctx, courseID, userID, models.MembershipStudent)
		if err != nil {
			return fmt.Errorf("failed to check student membership: %w", err)
		}
		if isStudent {
			return NewBusinessRuleError("already_enrolled", MsgAlreadyEnrolled,
				map[string]interface{}{"course_id": courseID, "user_id": userID})
		}

		err = tx.Membership().Add(ctx, &models.CourseMembership{
			CourseID: courseID,
			UserID:   userID,
			Role:     models.MembershipStudent,
		})
		if err != nil {
			if repositories.IsDuplicateError(err) {
				return NewBusinessRuleError("already_enrolled", MsgAlreadyEnrolled,
					map[string]interface{}{"course_id": courseID, "user_id": userID})
			}
			return fmt.Errorf("failed to add student: %w", err)
		}

		if audience, err = courseAudience(ctx, tx, courseID); err != nil {
			return err
		}
		response, err = reload(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.CourseStudentEnrolled, courseID, map[string]interface{}{"user_id": userID}, audience...)
	s.logger.InfoContext(ctx, "Student enrolled", "course_id", courseID, "user_id", userID)

	return response, nil
}

func (s *membershipCoordinator) AssignInstructor(ctx context.Context, courseID, instructorID string) (*models.AssignInstructorResult, error) {
	s.logger.InfoContext(ctx, "Assigning instructor", "course_id", courseID, "instructor_id", instructorID)

	var (
		response       *models.CourseResponse
		wasStudent     bool
		previousUserID string
		audience       []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotFound); err != nil {
			return err
		}
		if _, err := findUser(ctx, tx, instructorID, MsgInstructorNotFound); err != nil {
			return err
		}

		current, err := tx.Membership().GetInstructor(ctx, courseID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get current instructor: %w", err)
		}
		if current != nil && current.UserID == instructorID {
			return NewBusinessRuleError("already_instructor", MsgAlreadyInstructor,
				map[string]interface{}{"course_id": courseID, "instructor_id": instructorID})
		}

		wasStudent, err = tx.Membership().Remove(ctx, courseID, instructorID, models.MembershipStudent)
		if err != nil {
			return fmt.Errorf("failed to remove student membership: %w", err)
		}

		if current != nil {
			previousUserID = current.UserID
			if _, err := tx.Membership().Remove(ctx, courseID, current.UserID, models.MembershipInstructor); err != nil {
				return fmt.Errorf("failed to remove previous instructor: %w", err)
			}
		}

		err = tx.Membership().Add(ctx, &models.CourseMembership{
			CourseID: courseID,
			UserID:   instructorID,
			Role:     models.MembershipInstructor,
		})
		if err != nil {
			return fmt.Errorf("failed to add instructor: %w", err)
		}

		if audience, err = courseAudience(ctx, tx, courseID, previousUserID); err != nil {
			return err
		}
		response, err = reload(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.CourseInstructorAssigned, courseID, map[string]interface{}{
		"instructor_id":          instructorID,
		"previous_instructor_id": previousUserID,
		"was_student":            wasStudent,
	}, audience...)
	s.logger.InfoContext(ctx, "Instructor assigned", "course_id", courseID, "instructor_id", instructorID, "was_student", wasStudent)

	return &models.AssignInstructorResult{Course: response, WasStudent: wasStudent}, nil
}

// AssignCatedratico adds a catedrático. A student membership the user already
// holds in the course is kept.
func (s *membershipCoordinator) AssignCatedratico(ctx context.Context, courseID, catedraticoID string) (*models.CourseResponse, error) {
	s.logger.InfoContext(ctx, "Assigning catedratico", "course_id", courseID, "catedratico_id", catedraticoID)

	var (
		response *models.CourseResponse
		audience []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		user, err := findUser(ctx, tx, catedraticoID, MsgCatedraticoInvalid)
		if err != nil {
			return err
		}
		if user.Role != models.RoleCatedratico {
			return NewNotFoundError("user", catedraticoID, MsgCatedraticoInvalid)
		}

		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotFoundDot); err != nil {
			return err
		}

		exists, err := tx.Membership().Exists(ctx, courseID, catedraticoID, models.MembershipCatedratico)
		if err != nil {
			return fmt.Errorf("failed to check catedratico membership: %w", err)
		}
		if exists {
			return NewBusinessRuleError("already_catedratico", MsgAlreadyCatedratico,
				map[string]interface{}{"course_id": courseID, "catedratico_id": catedraticoID})
		}

		err = tx.Membership().Add(ctx, &models.CourseMembership{
			CourseID: courseID,
			UserID:   catedraticoID,
			Role:     models.MembershipCatedratico,
		})
		if err != nil {
			return fmt.Errorf("failed to add catedratico: %w", err)
		}

		if audience, err = courseAudience(ctx, tx, courseID); err != nil {
			return err
		}
		response, err = reload(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.CourseCatedraticoAdded, courseID, map[string]interface{}{"catedratico_id": catedraticoID}, audience...)

	return response, nil
}

// LeaveCourse drops the caller's student and catedrático memberships. Leaving
// a course the user does not belong to is a no-op.
func (s *membershipCoordinator) LeaveCourse(ctx context.Context, courseID, userID string) error {
	s.logger.InfoContext(ctx, "Leaving course", "course_id", courseID, "user_id", userID)

	var (
		removedStudent, removedCatedratico bool
		audience                           []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotFound); err != nil {
			return err
		}

		isInstructor, err := tx.Membership().Exists(ctx, courseID, userID, models.MembershipInstructor)
		if err != nil {
			return fmt.Errorf("failed to check instructor membership: %w", err)
		}
		if isInstructor {
			return NewBusinessRuleError("instructor_cannot_leave", MsgInstructorCannotLeave,
				map[string]interface{}{"course_id": courseID, "user_id": userID})
		}

		if removedStudent, err = tx.Membership().Remove(ctx, courseID, userID, models.MembershipStudent); err != nil {
			return fmt.Errorf("failed to remove student membership: %w", err)
		}
		if removedCatedratico, err = tx.Membership().Remove(ctx, courseID, userID, models.MembershipCatedratico); err != nil {
			return fmt.Errorf("failed to remove catedratico membership: %w", err)
		}

		audience, err = courseAudience(ctx, tx, courseID, userID)
		return err
	})
	if err != nil {
		return err
	}

	if removedStudent || removedCatedratico {
		s.committed(ctx, events.CourseMemberLeft, courseID, map[string]interface{}{
			"user_id":             userID,
			"removed_student":     removedStudent,
			"removed_catedratico": removedCatedratico,
		}, audience...)
	}

	return nil
}

// RemoveUserFromCourse drops the user's student membership and, when they are
// the instructor, the instructor membership. Only this course is affected.
func (s *membershipCoordinator) RemoveUserFromCourse(ctx context.Context, courseID, userID string) (*models.CourseResponse, error) {
	s.logger.InfoContext(ctx, "Removing user from course", "course_id", courseID, "user_id", userID)

	var (
		response     *models.CourseResponse
		isInstructor bool
		audience     []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotExists); err != nil {
			return err
		}

		isStudent, err := tx.Membership().Exists(ctx, courseID, userID, models.MembershipStudent)
		if err != nil {
			return fmt.Errorf("failed to check student membership: %w", err)
		}
		isInstructor, err = tx.Membership().Exists(ctx, courseID, userID, models.MembershipInstructor)
		if err != nil {
			return fmt.Errorf("failed to check instructor membership: %w", err)
		}
		if !isStudent && !isInstructor {
			return NewBusinessRuleError("user_not_in_course", MsgUserNotInCourse,
				map[string]interface{}{"course_id": courseID, "user_id": userID})
		}

		if isStudent {
			if _, err := tx.Membership().Remove(ctx, courseID, userID, models.MembershipStudent); err != nil {
				return fmt.Errorf("failed to remove student membership: %w", err)
			}
		}
		if isInstructor {
			if _, err := tx.Membership().Remove(ctx, courseID, userID, models.MembershipInstructor); err != nil {
				return fmt.Errorf("failed to remove instructor membership: %w", err)
			}
		}

		if audience, err = courseAudience(ctx, tx, courseID, userID); err != nil {
			return err
		}
		response, err = reload(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.CourseMemberRemoved, courseID, map[string]interface{}{
		"user_id":        userID,
		"was_instructor": isInstructor,
	}, audience...)

	return response, nil
}

// DeleteCourse removes the course together with its memberships, sections and
// calendar events
func (s *membershipCoordinator) DeleteCourse(ctx context.Context, courseID string) error {
	s.logger.InfoContext(ctx, "Deleting course", "course_id", courseID)

	var members []string
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotFound); err != nil {
			return err
		}

		memberships, err := tx.Membership().ListByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to list memberships: %w", err)
		}
		members = memberIDs(memberships)

		if _, err := tx.Membership().DeleteByCourse(ctx, courseID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := tx.Section().DeleteByCourse(ctx, courseID); err != nil {
			return fmt.Errorf("failed to delete sections: %w", err)
		}
		if err := tx.CourseEvent().DeleteByCourse(ctx, courseID); err != nil {
			return fmt.Errorf("failed to delete course events: %w", err)
		}
		if err := tx.Course().Delete(ctx, courseID); err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.committed(ctx, events.CourseDeleted, courseID, map[string]interface{}{"released_members": len(members)}, members...)
	s.logger.InfoContext(ctx, "Course deleted", "course_id", courseID, "released_members", len(members))

	return nil
}

func (s *membershipCoordinator) AddSection(ctx context.Context, courseID string, req *models.SectionRequest) (*models.CourseResponse, error) {
	var (
		response *models.CourseResponse
		audience []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, courseID, MsgCourseNotFound); err != nil {
			return err
		}

		if errs := s.validator.GetBusinessValidator().ValidateSection(req); len(errs) > 0 {
			return NewValidationError(errs)
		}

		count, err := tx.Section().CountByCourse(ctx, courseID)
		if err != nil {
			return fmt.Errorf("failed to count sections: %w", err)
		}

		section := newSection(courseID, int(count)+1, req)
		if err := tx.Section().Create(ctx, section); err != nil {
			return fmt.Errorf("failed to create section: %w", err)
		}

		if audience, err = courseAudience(ctx, tx, courseID); err != nil {
			return err
		}
		response, err = reload(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, events.CourseSectionAdded, courseID, map[string]interface{}{"sections": len(response.Sections)}, audience...)

	return response, nil
}

func newSection(courseID string, order int, req *models.SectionRequest) *models.Section {
	resources := make([]models.Resource, 0, len(req.Resources))
	for _, r := range req.Resources {
		resources = append(resources, models.Resource{Type: r.Type, URL: r.URL})
	}
	return &models.Section{
		CourseID:  courseID,
		Title:     req.Title,
		Order:     order,
		Resources: resources,
	}
}
