package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/course-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// LockIDsByRole row-locks every user holding role for the rest of the
	// transaction and returns their ids
	LockIDsByRole(ctx context.Context, role models.UserRole) ([]string, error)

	// DeleteUnverifiedBefore removes unverified accounts whose verification
	// window closed before cutoff and returns how many were removed.
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type RoleRequestRepository interface {
	// GetByUserID returns ErrNotFound when the user never submitted a request
	GetByUserID(ctx context.Context, userID string) (*models.RoleRequest, error)
	Save(ctx context.Context, request *models.RoleRequest) error
	ListByStatus(ctx context.Context, status models.RoleRequestStatus) ([]*models.RoleRequest, error)
	DeleteByUser(ctx context.Context, userID string) error
}
