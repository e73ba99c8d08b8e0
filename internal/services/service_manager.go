package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/mailer"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"github.com/SAP-F-2025/course-service/pkg/jwt"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	AdminSecretKey    string
	UnverifiedUserTTL time.Duration

	// SweepInterval of zero disables the unverified user sweeper
	SweepInterval time.Duration
}

// Dependencies are the shared collaborators handed to every service
type Dependencies struct {
	Repo      repositories.Repository
	Cache     *cache.CacheManager
	Publisher events.EventPublisher
	Bus       *events.ChannelBus
	Mailer    mailer.Mailer
	Tokens    *jwt.Manager
	Logger    *slog.Logger
	Validator *validator.Validator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	membership  MembershipCoordinator
	course      CourseService
	user        UserService
	roleRequest RoleRequestService
	courseEvent CourseEventService
	message     MessageService

	sweeper *UnverifiedUserSweeper

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		deps:   deps,
		config: config,
	}
}

// Initialize sets up all services and starts the background sweeper
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}
	if sm.deps.Publisher == nil {
		sm.deps.Publisher = events.NewLogEventPublisher(sm.deps.Logger)
	}

	d := sm.deps
	sm.membership = NewMembershipCoordinator(d.Repo, d.Cache, d.Publisher, d.Logger, d.Validator)
	sm.course = NewCourseService(d.Repo, d.Cache, d.Publisher, d.Logger, d.Validator)
	sm.user = NewUserService(d.Repo, d.Cache, d.Publisher, d.Mailer, d.Tokens, d.Logger, d.Validator, UserServiceConfig{
		AdminSecretKey:  sm.config.AdminSecretKey,
		VerificationTTL: sm.config.UnverifiedUserTTL,
	})
	sm.roleRequest = NewRoleRequestService(d.Repo, d.Cache, d.Publisher, d.Logger, d.Validator)
	sm.courseEvent = NewCourseEventService(d.Repo, d.Publisher, d.Logger, d.Validator)

	var bus MessageBus
	if d.Bus != nil {
		bus = d.Bus
	}
	sm.message = NewMessageService(d.Repo, bus, d.Publisher, d.Logger, d.Validator)

	if sm.config.SweepInterval > 0 {
		sm.sweeper = NewUnverifiedUserSweeper(d.Repo, d.Logger, sm.config.SweepInterval)
		sm.sweeper.Start(context.WithoutCancel(ctx))
		sm.deps.Logger.Info("Unverified user sweeper started", "interval", sm.config.SweepInterval)
	}

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Membership() MembershipCoordinator {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.membership
}

func (sm *serviceManager) Course() CourseService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.course
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.user
}

func (sm *serviceManager) RoleRequest() RoleRequestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.roleRequest
}

func (sm *serviceManager) CourseEvent() CourseEventService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.courseEvent
}

func (sm *serviceManager) Message() MessageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.message
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// the cache is optional, reads fall through to the database
	if sm.deps.Cache != nil {
		if err := sm.deps.Cache.HealthCheck(ctx); err != nil {
			sm.deps.Logger.WarnContext(ctx, "Cache unavailable", "error", err)
		}
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if sm.sweeper != nil {
		sm.sweeper.Stop()
	}

	if sm.deps.Bus != nil {
		if err := sm.deps.Bus.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close message bus", "error", err)
		}
	}

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
