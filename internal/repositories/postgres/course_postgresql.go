package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
)

type CoursePostgreSQL struct {
	db *gorm.DB
}

func NewCoursePostgreSQL(db *gorm.DB) repositories.CourseRepository {
	return &CoursePostgreSQL{db: db}
}

// withRoster preloads sections in display order and the membership rows
func withRoster(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		})
}

func (c *CoursePostgreSQL) Create(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Omit("Memberships").Create(course).Error; err != nil {
		return handleDBError(err, "create course")
	}
	return nil
}

func (c *CoursePostgreSQL) GetByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := withRoster(c.db.WithContext(ctx)).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, handleDBError(err, "get course by id")
	}
	return &course, nil
}

func (c *CoursePostgreSQL) LockByID(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	err := c.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, handleDBError(err, "lock course")
	}
	return &course, nil
}

func (c *CoursePostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	if len(ids) == 0 {
		return []*models.Course{}, nil
	}

	var courses []*models.Course
	if err := withRoster(c.db.WithContext(ctx)).Where("id IN ?", ids).Order("created_at ASC").Find(&courses).Error; err != nil {
		return nil, handleDBError(err, "get courses by ids")
	}
	return courses, nil
}

func (c *CoursePostgreSQL) List(ctx context.Context, filters repositories.CourseFilters) ([]*models.Course, int64, error) {
	var courses []*models.Course
	var total int64

	query := c.db.WithContext(ctx).Model(&models.Course{})
	if filters.Search != "" {
		query = query.Where("title ILIKE ?", "%"+filters.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count courses")
	}

	query = applyPaginationAndSort(withRoster(query), filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, handleDBError(err, "list courses")
	}

	return courses, total, nil
}

func (c *CoursePostgreSQL) Update(ctx context.Context, course *models.Course) error {
	if err := c.db.WithContext(ctx).Omit(clause.Associations).Save(course).Error; err != nil {
		return handleDBError(err, "update course")
	}
	return nil
}

func (c *CoursePostgreSQL) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete course")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete course")
	}
	return nil
}

// ===== SECTIONS =====

type SectionPostgreSQL struct {
	db *gorm.DB
}

func NewSectionPostgreSQL(db *gorm.DB) repositories.SectionRepository {
	return &SectionPostgreSQL{db: db}
}

func (s *SectionPostgreSQL) Create(ctx context.Context, section *models.Section) error {
	if err := s.db.WithContext(ctx).Create(section).Error; err != nil {
		return handleDBError(err, "create section")
	}
	return nil
}

func (s *SectionPostgreSQL) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Section{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count sections")
	}
	return count, nil
}

func (s *SectionPostgreSQL) ListByCourse(ctx context.Context, courseID string) ([]models.Section, error) {
	var sections []models.Section
	if err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Order("position ASC").Find(&sections).Error; err != nil {
		return nil, handleDBError(err, "list sections")
	}
	return sections, nil
}

func (s *SectionPostgreSQL) DeleteByCourse(ctx context.Context, courseID string) error {
	if err := s.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&models.Section{}).Error; err != nil {
		return handleDBError(err, "delete sections")
	}
	return nil
}

// ===== MEMBERSHIPS =====

type MembershipPostgreSQL struct {
	db *gorm.DB
}

func NewMembershipPostgreSQL(db *gorm.DB) repositories.MembershipRepository {
	return &MembershipPostgreSQL{db: db}
}

func (m *MembershipPostgreSQL) Add(ctx context.Context, membership *models.CourseMembership) error {
	if err := m.db.WithContext(ctx).Omit("User").Create(membership).Error; err != nil {
		return handleDBError(err, "add membership")
	}
	return nil
}

func (m *MembershipPostgreSQL) Remove(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error) {
	result := m.db.WithContext(ctx).
		Where("course_id = ? AND user_id = ? AND role = ?", courseID, userID, role).
		Delete(&models.CourseMembership{})
	if result.Error != nil {
		return false, handleDBError(result.Error, "remove membership")
	}
	return result.RowsAffected > 0, nil
}

func (m *MembershipPostgreSQL) Exists(ctx context.Context, courseID, userID string, role models.MembershipRole) (bool, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.CourseMembership{}).
		Where("course_id = ? AND user_id = ? AND role = ?", courseID, userID, role).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "check membership")
	}
	return count > 0, nil
}

func (m *MembershipPostgreSQL) GetInstructor(ctx context.Context, courseID string) (*models.CourseMembership, error) {
	var membership models.CourseMembership
	err := m.db.WithContext(ctx).
		Where("course_id = ? AND role = ?", courseID, models.MembershipInstructor).
		First(&membership).Error
	if err != nil {
		return nil, handleDBError(err, "get course instructor")
	}
	return &membership, nil
}

func (m *MembershipPostgreSQL) ListByCourse(ctx context.Context, courseID string) ([]models.CourseMembership, error) {
	var memberships []models.CourseMembership
	err := m.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, handleDBError(err, "list course memberships")
	}
	return memberships, nil
}

func (m *MembershipPostgreSQL) ListByUser(ctx context.Context, userID string) ([]models.CourseMembership, error) {
	var memberships []models.CourseMembership
	err := m.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, handleDBError(err, "list user memberships")
	}
	return memberships, nil
}

func (m *MembershipPostgreSQL) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	result := m.db.WithContext(ctx).Where("course_id = ?", courseID).Delete(&models.CourseMembership{})
	if result.Error != nil {
		return 0, handleDBError(result.Error, "delete course memberships")
	}
	return result.RowsAffected, nil
}

func (m *MembershipPostgreSQL) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result := m.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CourseMembership{})
	if result.Error != nil {
		return 0, handleDBError(result.Error, "delete user memberships")
	}
	return result.RowsAffected, nil
}
