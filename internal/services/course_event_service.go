package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

type courseEventService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCourseEventService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) CourseEventService {
	return &courseEventService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

func (s *courseEventService) Create(ctx context.Context, req *models.CreateCourseEventRequest) (*models.CourseEvent, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	event := &models.CourseEvent{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		CourseID:    req.CourseID,
	}

	// the course lock keeps a concurrent delete from orphaning the event
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if _, err := lockCourse(ctx, tx, req.CourseID, MsgCourseNotFound); err != nil {
			return err
		}
		if err := tx.CourseEvent().Create(ctx, event); err != nil {
			return fmt.Errorf("failed to create course event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.CourseEventCreated, map[string]interface{}{
		"event_id":  event.ID,
		"course_id": event.CourseID,
		"date":      event.Date,
	})
	return event, nil
}

func (s *courseEventService) Update(ctx context.Context, eventID string, req *models.UpdateCourseEventRequest) (*models.CourseEvent, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	event, err := s.get(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Date != nil {
		event.Date = *req.Date
	}
	if req.Location != nil {
		event.Location = *req.Location
	}

	if err := s.repo.CourseEvent().Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update course event: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, events.CourseEventUpdated, map[string]interface{}{
		"event_id":  event.ID,
		"course_id": event.CourseID,
	})
	return event, nil
}

func (s *courseEventService) Delete(ctx context.Context, eventID string) error {
	if err := s.repo.CourseEvent().Delete(ctx, eventID); err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("course_event", eventID, MsgEventNotFound)
		}
		return fmt.Errorf("failed to delete course event: %w", err)
	}

	publishEvent(ctx, s.publisher, s.logger, events.CourseEventDeleted, map[string]interface{}{"event_id": eventID})
	return nil
}

func (s *courseEventService) ListAll(ctx context.Context) ([]*models.CourseEvent, error) {
	list, err := s.repo.CourseEvent().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list course events: %w", err)
	}
	return list, nil
}

func (s *courseEventService) ListByCourse(ctx context.Context, courseID string) ([]*models.CourseEvent, error) {
	list, err := s.repo.CourseEvent().ListByCourses(ctx, []string{courseID})
	if err != nil {
		return nil, fmt.Errorf("failed to list course events: %w", err)
	}
	return list, nil
}

func (s *courseEventService) ListForUser(ctx context.Context, userID string) ([]*models.CourseEvent, error) {
	memberships, err := s.repo.Membership().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	var courseIDs []string
	for _, m := range memberships {
		if m.Role == models.MembershipStudent {
			courseIDs = append(courseIDs, m.CourseID)
		}
	}
	if len(courseIDs) == 0 {
		return []*models.CourseEvent{}, nil
	}

	list, err := s.repo.CourseEvent().ListByCourses(ctx, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list course events: %w", err)
	}
	return list, nil
}

func (s *courseEventService) get(ctx context.Context, repo repositories.Repository, eventID string) (*models.CourseEvent, error) {
	event, err := repo.CourseEvent().GetByID(ctx, eventID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("course_event", eventID, MsgEventNotFound)
		}
		return nil, fmt.Errorf("failed to get course event: %w", err)
	}
	return event, nil
}
