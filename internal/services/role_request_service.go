package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/course-service/internal/cache"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

type roleRequestService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	now func() time.Time
}

func NewRoleRequestService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) RoleRequestService {
	return &roleRequestService{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// Submit moves the caller's request to pending. Users that never applied and
// users whose last request was rejected may submit.
func (s *roleRequestService) Submit(ctx context.Context, userID string, req *models.RoleChangeRequest) (*models.RoleRequest, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	var request *models.RoleRequest
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := findUser(ctx, tx, userID, MsgUserNotFound); err != nil {
			return err
		}

		var err error
		request, err = currentRequest(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.transition(request, models.RoleRequestPending); err != nil {
			return err
		}

		now := s.now()
		request.Cum = *req.Cum
		request.Status = models.RoleRequestPending
		request.RequestDate = &now
		request.ResponseDate = nil
		request.ReviewedBy = nil

		if err := tx.RoleRequest().Save(ctx, request); err != nil {
			return fmt.Errorf("failed to save role request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.RoleRequestSubmitted, map[string]interface{}{
		"user_id": userID,
		"cum":     request.Cum,
	})
	return request, nil
}

// Approve grants the instructor role. The CUM is informational only.
func (s *roleRequestService) Approve(ctx context.Context, reviewerID, userID string) (*models.RoleRequest, error) {
	return s.review(ctx, reviewerID, userID, models.RoleRequestApproved)
}

func (s *roleRequestService) Reject(ctx context.Context, reviewerID, userID string) (*models.RoleRequest, error) {
	return s.review(ctx, reviewerID, userID, models.RoleRequestRejected)
}

func (s *roleRequestService) review(ctx context.Context, reviewerID, userID string, outcome models.RoleRequestStatus) (*models.RoleRequest, error) {
	if _, err := requireRole(ctx, s.repo, reviewerID, "role_request", string(outcome), MsgNoPermission); err != nil {
		return nil, err
	}

	var (
		request   *models.RoleRequest
		courseIDs []string
		audience  []string
	)
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		request, err = tx.RoleRequest().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return NewNotFoundError("role_request", userID, MsgRequestNotFound)
			}
			return fmt.Errorf("failed to get role request: %w", err)
		}

		if !request.Status.CanTransitionTo(outcome) {
			return NewBusinessRuleError("request_not_pending", MsgRequestNotPending,
				map[string]interface{}{"user_id": userID, "status": string(request.Status)})
		}

		now := s.now()
		reviewer := reviewerID
		request.Status = outcome
		request.ResponseDate = &now
		request.ReviewedBy = &reviewer

		if err := tx.RoleRequest().Save(ctx, request); err != nil {
			return fmt.Errorf("failed to save role request: %w", err)
		}

		if outcome != models.RoleRequestApproved {
			return nil
		}

		user, err := findUser(ctx, tx, userID, MsgUserNotFound)
		if err != nil {
			return err
		}
		user.Role = request.RequestedRole
		if err := tx.User().Update(ctx, user); err != nil {
			return fmt.Errorf("failed to update user role: %w", err)
		}

		courseIDs, audience, err = userCourseAudience(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if outcome == models.RoleRequestApproved {
		cache.InvalidateCoursesCache(ctx, s.cache, courseIDs, audience...)
	}

	eventType := events.RoleRequestRejected
	if outcome == models.RoleRequestApproved {
		eventType = events.RoleRequestApproved
	}
	publishEvent(ctx, s.publisher, s.logger, eventType, map[string]interface{}{
		"user_id":     userID,
		"reviewed_by": reviewerID,
		"cum":         request.Cum,
	})
	s.logger.InfoContext(ctx, "Role request reviewed", "user_id", userID, "status", outcome, "reviewer_id", reviewerID)

	return request, nil
}

func (s *roleRequestService) ListPending(ctx context.Context, reviewerID string) ([]models.PendingRoleRequest, error) {
	if _, err := requireRole(ctx, s.repo, reviewerID, "role_request", "list", MsgNoPermission); err != nil {
		return nil, err
	}

	requests, err := s.repo.RoleRequest().ListByStatus(ctx, models.RoleRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list role requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, NewNotFoundError("role_request", "", MsgNoPendingRequests)
	}

	pending := make([]models.PendingRoleRequest, 0, len(requests))
	for _, r := range requests {
		item := models.PendingRoleRequest{
			UserID:      r.UserID,
			Cum:         r.Cum,
			RequestDate: r.RequestDate,
		}
		if r.User != nil {
			item.Name = r.User.Name
			item.Email = r.User.Email
		}
		pending = append(pending, item)
	}
	return pending, nil
}

// transition checks next against the role request state machine
func (s *roleRequestService) transition(request *models.RoleRequest, next models.RoleRequestStatus) error {
	errs := s.validator.GetBusinessValidator().ValidateRoleRequestTransition(request.Status, next)
	if len(errs) == 0 {
		return nil
	}

	message := MsgRequestNotPending
	switch request.Status {
	case models.RoleRequestPending:
		message = MsgRequestExists
	case models.RoleRequestApproved:
		message = MsgRequestApproved
	}
	return NewBusinessRuleError("status_transition", message, map[string]interface{}{
		"user_id": request.UserID,
		"from":    string(request.Status),
		"to":      string(next),
	})
}

// currentRequest returns the stored request, or the implicit notSent one
func currentRequest(ctx context.Context, tx repositories.Repository, userID string) (*models.RoleRequest, error) {
	request, err := tx.RoleRequest().GetByUserID(ctx, userID)
	if err == nil {
		return request, nil
	}
	if repositories.IsNotFoundError(err) {
		return models.NewRoleRequest(userID), nil
	}
	return nil, fmt.Errorf("failed to get role request: %w", err)
}
