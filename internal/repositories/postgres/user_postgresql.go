package postgres

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return handleDBError(err, "create user")
	}
	return nil
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := u.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, handleDBError(err, "get user by email")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, handleDBError(err, "get users by ids")
	}
	return users, nil
}

func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	if err := u.db.WithContext(ctx).Save(user).Error; err != nil {
		return handleDBError(err, "update user")
	}
	return nil
}

func (u *UserPostgreSQL) Delete(ctx context.Context, id string) error {
	result := u.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete user")
	}
	if result.RowsAffected == 0 {
		return handleDBError(gorm.ErrRecordNotFound, "delete user")
	}
	return nil
}

func (u *UserPostgreSQL) List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := u.db.WithContext(ctx).Model(&models.User{})
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}
	if filters.Role != nil {
		query = query.Where("role = ?", *filters.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count users")
	}

	query = applyPaginationAndSort(query, "name", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list users")
	}

	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "check user email")
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) LockIDsByRole(ctx context.Context, role models.UserRole) ([]string, error) {
	var ids []string
	err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", role).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, handleDBError(err, "lock users by role")
	}
	return ids, nil
}

func (u *UserPostgreSQL) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := u.db.WithContext(ctx).
		Where("is_verified = ? AND verification_expires_at < ?", false, cutoff).
		Delete(&models.User{})
	if result.Error != nil {
		return 0, handleDBError(result.Error, "delete unverified users")
	}
	return result.RowsAffected, nil
}

// ===== ROLE REQUESTS =====

type RoleRequestPostgreSQL struct {
	db *gorm.DB
}

func NewRoleRequestPostgreSQL(db *gorm.DB) repositories.RoleRequestRepository {
	return &RoleRequestPostgreSQL{db: db}
}

func (r *RoleRequestPostgreSQL) GetByUserID(ctx context.Context, userID string) (*models.RoleRequest, error) {
	var request models.RoleRequest
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&request).Error; err != nil {
		return nil, handleDBError(err, "get role request")
	}
	return &request, nil
}

// Save upserts on the user_id primary key
func (r *RoleRequestPostgreSQL) Save(ctx context.Context, request *models.RoleRequest) error {
	if err := r.db.WithContext(ctx).Omit("User").Save(request).Error; err != nil {
		return handleDBError(err, "save role request")
	}
	return nil
}

func (r *RoleRequestPostgreSQL) ListByStatus(ctx context.Context, status models.RoleRequestStatus) ([]*models.RoleRequest, error) {
	var requests []*models.RoleRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", status).
		Order("request_date ASC").
		Find(&requests).Error
	if err != nil {
		return nil, handleDBError(err, "list role requests")
	}
	return requests, nil
}

func (r *RoleRequestPostgreSQL) DeleteByUser(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RoleRequest{}).Error; err != nil {
		return handleDBError(err, "delete role request")
	}
	return nil
}
