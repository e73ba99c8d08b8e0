package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

type courseService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *courseService) Create(ctx context.Context, actorID string, req *models.CreateCourseRequest) (*models.CourseResponse, error) {
	s.logger.InfoContext(ctx, "Creating course", "actor_id", actorID, "title", req.Title)

	if errs := s.validator.GetBusinessValidator().ValidateCourseCreate(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if _, err := requireRole(ctx, s.repo, actorID, "course", "create", MsgNoPermission,
		models.RoleInstructor, models.RoleCatedratico); err != nil {
		return nil, err
	}

	instructorID := req.Instructor
	if instructorID == "" {
		instructorID = actorID
	}

	var response *models.CourseResponse
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := findUser(ctx, tx, instructorID, MsgInstructorNotFound); err != nil {
			return err
		}

		course := &models.Course{
			Title:       req.Title,
			Description: req.Description,
			Tags:        req.Tags,
		}
		if err := tx.Course().Create(ctx, course); err != nil {
			return fmt.Errorf("failed to create course: %w", err)
		}

		// sections are renumbered 1..n whatever order the client sent
		for i := range req.Sections {
			if err := tx.Section().Create(ctx, newSection(course.ID, i+1, &req.Sections[i])); err != nil {
				return fmt.Errorf("failed to create section: %w", err)
			}
		}

		err := tx.Membership().Add(ctx, &models.CourseMembership{
			CourseID: course.ID,
			UserID:   instructorID,
			Role:     models.MembershipInstructor,
		})
		if err != nil {
			return fmt.Errorf("failed to add instructor: %w", err)
		}

		response, err = reload(ctx, tx, course.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateCourseCache(ctx, s.cache, response.ID, instructorID)
	publishEvent(ctx, s.publisher, s.logger, events.CourseCreated, map[string]interface{}{
		"course_id":     response.ID,
		"title":         response.Title,
		"instructor_id": instructorID,
		"created_by":    actorID,
	})

	s.logger.InfoContext(ctx, "Course created", "course_id", response.ID, "instructor_id", instructorID)
	return response, nil
}

func (s *courseService) List(ctx context.Context, search string) ([]*models.CourseResponse, error) {
	var result []*models.CourseResponse
	err := s.cached(ctx, s.courseCache(), cache.CourseListKey(search), &result, func() (interface{}, error) {
		courses, _, err := s.repo.Course().List(ctx, repositories.CourseFilters{
			Search:    search,
			SortBy:    "created_at",
			SortOrder: "desc",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list courses: %w", err)
		}
		return toCourseResponses(courses), nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the course with its roster populated as user summaries
func (s *courseService) GetByID(ctx context.Context, courseID string) (*models.CourseDetailResponse, error) {
	var detail models.CourseDetailResponse
	err := s.cached(ctx, s.courseCache(), cache.CourseDetailKey(courseID), &detail, func() (interface{}, error) {
		return s.loadDetail(ctx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *courseService) loadDetail(ctx context.Context, courseID string) (*models.CourseDetailResponse, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course", courseID, MsgCourseNotFound)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	users, err := s.repo.User().GetByIDs(ctx, memberIDs(course.Memberships))
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	base := models.NewCourseResponse(course)
	detail := &models.CourseDetailResponse{
		ID:           base.ID,
		Title:        base.Title,
		Description:  base.Description,
		Tags:         base.Tags,
		Sections:     base.Sections,
		Catedraticos: []models.UserSummary{},
		Students:     []models.UserSummary{},
		CreatedAt:    base.CreatedAt,
		UpdatedAt:    base.UpdatedAt,
	}

	// memberships whose user row is gone are skipped
	for _, m := range course.Memberships {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		summary := u.Summary()
		switch m.Role {
		case models.MembershipInstructor:
			detail.Instructor = &summary
		case models.MembershipCatedratico:
			detail.Catedraticos = append(detail.Catedraticos, summary)
		case models.MembershipStudent:
			detail.Students = append(detail.Students, summary)
		}
	}

	return detail, nil
}

// ===== USER COURSE LISTS =====

func (s *courseService) UserCourses(ctx context.Context, userID string) ([]*models.CourseResponse, error) {
	var result []*models.CourseResponse
	err := s.cached(ctx, s.userCache(), cache.UserCoursesKey(userID), &result, func() (interface{}, error) {
		return s.coursesByRole(ctx, userID,
			models.MembershipStudent, models.MembershipInstructor, models.MembershipCatedratico)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *courseService) CoursesAsStudent(ctx context.Context, userID string) ([]*models.CourseResponse, error) {
	var result []*models.CourseResponse
	err := s.cached(ctx, s.userCache(), cache.UserStudentCoursesKey(userID), &result, func() (interface{}, error) {
		return s.coursesByRole(ctx, userID, models.MembershipStudent)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// coursesByRole concatenates the user's courses for each role, in the order
// the roles are given
func (s *courseService) coursesByRole(ctx context.Context, userID string, roles ...models.MembershipRole) ([]*models.CourseResponse, error) {
	if _, err := findUser(ctx, s.repo, userID, MsgUserNotFound); err != nil {
		return nil, err
	}

	memberships, err := s.repo.Membership().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	result := make([]*models.CourseResponse, 0, len(memberships))
	for _, role := range roles {
		var ids []string
		for _, m := range memberships {
			if m.Role == role {
				ids = append(ids, m.CourseID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		courses, err := s.repo.Course().GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to get courses: %w", err)
		}
		result = append(result, toCourseResponses(courses)...)
	}

	return result, nil
}

// ===== EXPORT =====

var rosterRoleLabels = map[models.MembershipRole]string{
	models.MembershipInstructor:  "Instructor",
	models.MembershipCatedratico: "Catedrático",
	models.MembershipStudent:     "Estudiante",
}

// ExportRoster renders the course members as an xlsx workbook
func (s *courseService) ExportRoster(ctx context.Context, courseID string) (*bytes.Buffer, string, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", NewNotFoundError("course", courseID, MsgCourseNotFound)
		}
		return nil, "", fmt.Errorf("failed to get course: %w", err)
	}

	memberships, err := s.repo.Membership().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list memberships: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Miembros"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", fmt.Errorf("failed to prepare sheet: %w", err)
	}

	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "C", 32)
	f.SetColWidth(sheet, "D", "D", 20)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	headers := []string{"Rol", "Nombre", "Correo", "Fecha de ingreso"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A1", "D1", headerStyle)

	row := 2
	for _, m := range memberships {
		name, email := m.UserID, ""
		if m.User != nil {
			name, email = m.User.Name, m.User.Email
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rosterRoleLabels[m.Role])
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), email)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), m.CreatedAt.Format("2006-01-02 15:04"))
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.InfoContext(ctx, "Roster exported", "course_id", course.ID, "members", len(memberships))
	return buf, fmt.Sprintf("curso-%s-miembros.xlsx", course.ID), nil
}

// ===== HELPERS =====

func (s *courseService) courseCache() *cache.CacheHelper {
	if s.cache == nil {
		return nil
	}
	return s.cache.Course
}

func (s *courseService) userCache() *cache.CacheHelper {
	if s.cache == nil {
		return nil
	}
	return s.cache.User
}

func (s *courseService) cached(ctx context.Context, helper *cache.CacheHelper, key string, dest interface{}, fetch func() (interface{}, error)) error {
	if helper == nil {
		value, err := fetch()
		if err != nil {
			return err
		}
		return assign(value, dest)
	}
	return helper.CacheOrExecute(ctx, key, dest, s.cache.TTL(), fetch)
}

// assign copies a freshly fetched value into dest without a cache round trip
func assign(value interface{}, dest interface{}) error {
	switch d := dest.(type) {
	case *[]*models.CourseResponse:
		*d = value.([]*models.CourseResponse)
	case *models.CourseDetailResponse:
		*d = *value.(*models.CourseDetailResponse)
	default:
		return fmt.Errorf("unsupported cache destination %T", dest)
	}
	return nil
}

func toCourseResponses(courses []*models.Course) []*models.CourseResponse {
	responses := make([]*models.CourseResponse, 0, len(courses))
	for _, c := range courses {
		responses = append(responses, models.NewCourseResponse(c))
	}
	return responses
}
