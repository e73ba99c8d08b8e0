package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/mailer"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/utils"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"github.com/SAP-F-2025/course-service/pkg/jwt"
)

// UserServiceConfig holds the account settings of the user service
type UserServiceConfig struct {
	AdminSecretKey  string
	VerificationTTL time.Duration
}

type userService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	mailer    mailer.Mailer
	tokens    *jwt.Manager
	logger    *slog.Logger
	validator *validator.Validator
	config    UserServiceConfig

	now func() time.Time
}

func NewUserService(
	repo repositories.Repository,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	mail mailer.Mailer,
	tokens *jwt.Manager,
	logger *slog.Logger,
	validator *validator.Validator,
	config UserServiceConfig,
) UserService {
	if config.VerificationTTL <= 0 {
		config.VerificationTTL = 24 * time.Hour
	}
	return &userService{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		mailer:    mail,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
		config:    config,
		now:       time.Now,
	}
}

// ===== REGISTRATION AND AUTH =====

// Register creates an unverified student and mails the verification code.
// The account is rolled back when the mail cannot be sent.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	code, err := utils.GenerateVerificationCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification code: %w", err)
	}
	expiresAt := s.now().Add(s.config.VerificationTTL)

	user := &models.User{
		Name:                  strings.TrimSpace(req.Name),
		Email:                 req.Email,
		Password:              hash,
		Photo:                 req.Photo,
		Role:                  models.RoleStudent,
		IsActive:              true,
		VerificationCode:      code,
		VerificationExpiresAt: &expiresAt,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		taken, err := tx.User().ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return NewBusinessRuleError("email_taken", MsgEmailTaken, map[string]interface{}{"email": req.Email})
		}

		if err := tx.User().Create(ctx, user); err != nil {
			if repositories.IsDuplicateError(err) {
				return NewBusinessRuleError("email_taken", MsgEmailTaken, map[string]interface{}{"email": req.Email})
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if err := s.mailer.Send(ctx, mailer.VerificationMessage(user.Name, user.Email, code)); err != nil {
			return fmt.Errorf("failed to send verification email: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.UserRegistered, map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)

	return user, nil
}

func (s *userService) VerifyEmail(ctx context.Context, req *models.VerifyEmailRequest) (*models.User, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user", req.Email, MsgUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	expired := user.VerificationExpiresAt != nil && s.now().After(*user.VerificationExpiresAt)
	if expired || !utils.SecureCompare(user.VerificationCode, req.VerificationCode) {
		return nil, NewBusinessRuleError("invalid_verification_code", MsgInvalidCode, nil)
	}

	user.IsVerified = true
	user.VerificationCode = ""
	user.VerificationExpiresAt = nil
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to verify user: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, events.UserVerified, map[string]interface{}{"user_id": user.ID})
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	user, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewAuthenticationError(MsgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified {
		return nil, NewBusinessRuleError("email_not_verified", MsgVerifyFirst, nil)
	}
	if !user.IsActive || !utils.CheckPassword(user.Password, req.Password) {
		return nil, NewAuthenticationError(MsgInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(jwt.Identity{
		UserID: user.ID,
		Name:   user.Name,
		Role:   string(user.Role),
		Email:  user.Email,
		Photo:  user.Photo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "User logged in", "user_id", user.ID)
	return &models.LoginResponse{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// CreateAdmin bootstraps an administrator. An unset secret key denies every request.
func (s *userService) CreateAdmin(ctx context.Context, req *models.CreateAdminRequest) (*models.User, error) {
	if !utils.SecureCompare(s.config.AdminSecretKey, req.SecretKey) {
		s.logger.WarnContext(ctx, "Rejected admin creation", "email", req.Email)
		return nil, NewPermissionError("", "", "user", "create_admin", MsgAdminKeyDenied)
	}
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		Password:   hash,
		Photo:      req.Photo,
		Role:       models.RoleAdmin,
		IsActive:   true,
		IsVerified: true,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		taken, err := tx.User().ExistsByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			return NewBusinessRuleError("email_taken", MsgEmailTaken, map[string]interface{}{"email": req.Email})
		}
		if err := tx.User().Create(ctx, admin); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Admin created", "user_id", admin.ID)
	return admin, nil
}

// ===== PROFILE AND ADMINISTRATION =====

func (s *userService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return findUser(ctx, s.repo, userID, MsgUserNotFound)
}

func (s *userService) List(ctx context.Context, filters models.UserFilters) ([]*models.User, int64, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 100
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

func (s *userService) ChangeRole(ctx context.Context, actorID, userID string, req *models.ChangeRoleRequest) (*models.User, error) {
	if _, err := requireRole(ctx, s.repo, actorID, "user", "change_role", MsgNoRolePermission); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	var (
		user      *models.User
		previous  models.UserRole
		courseIDs []string
		audience  []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		user, err = findUser(ctx, tx, userID, MsgUserNotFound)
		if err != nil {
			return err
		}
		previous = user.Role

		if previous == models.RoleAdmin {
			if err := ensureNotLastAdmin(ctx, tx, userID); err != nil {
				return err
			}
		}

		user.Role = req.Role
		if err := tx.User().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}

		courseIDs, audience, err = userCourseAudience(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	// rosters embed the member's role
	cache.InvalidateCoursesCache(ctx, s.cache, courseIDs, audience...)

	publishEvent(ctx, s.publisher, s.logger, events.UserRoleChanged, map[string]interface{}{
		"user_id":       user.ID,
		"previous_role": string(previous),
		"role":          string(user.Role),
		"changed_by":    actorID,
	})
	s.logger.InfoContext(ctx, "User role changed", "user_id", user.ID, "role", user.Role, "actor_id", actorID)

	return user, nil
}

// Delete removes a user together with their memberships and role request.
// The last remaining admin cannot be deleted.
func (s *userService) Delete(ctx context.Context, actorID, userID string) error {
	if _, err := requireRole(ctx, s.repo, actorID, "user", "delete", MsgNoPermission); err != nil {
		return err
	}

	var courseIDs, audience []string
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		user, err := findUser(ctx, tx, userID, MsgUserNotFound)
		if err != nil {
			return err
		}
		if user.Role == models.RoleAdmin {
			if err := ensureNotLastAdmin(ctx, tx, userID); err != nil {
				return err
			}
		}

		if courseIDs, audience, err = userCourseAudience(ctx, tx, userID); err != nil {
			return err
		}

		if _, err := tx.Membership().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}
		if err := tx.RoleRequest().DeleteByUser(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete role request: %w", err)
		}
		if err := tx.User().Delete(ctx, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateCoursesCache(ctx, s.cache, courseIDs, audience...)

	publishEvent(ctx, s.publisher, s.logger, events.UserDeleted, map[string]interface{}{
		"user_id":    userID,
		"deleted_by": actorID,
	})
	s.logger.InfoContext(ctx, "User deleted", "user_id", userID, "actor_id", actorID)

	return nil
}

// ensureNotLastAdmin locks every admin row before counting, so two
// transactions removing different admins cannot both see a spare one
func ensureNotLastAdmin(ctx context.Context, tx repositories.Repository, userID string) error {
	admins, err := tx.User().LockIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to lock admins: %w", err)
	}
	if len(admins) <= 1 {
		return NewBusinessRuleError("last_admin", MsgLastAdmin, map[string]interface{}{"user_id": userID})
	}
	return nil
}
