package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
)

// publishEvent is called after commit; a broker failure is logged and does
// not undo the committed change
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events.NewEvent(eventType, data)); err != nil {
		logger.WarnContext(ctx, "Failed to publish domain event", "event_type", eventType, "error", err)
	}
}

// findUser loads a user, turning a missing row into a NotFoundError with message
func findUser(ctx context.Context, repo repositories.Repository, userID, message string) (*models.User, error) {
	if userID == "" {
		return nil, NewNotFoundError("user", userID, message)
	}
	user, err := repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user", userID, message)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// requireRole loads the actor and checks it holds one of roles. Admin always passes.
func requireRole(ctx context.Context, repo repositories.Repository, actorID, resource, action, message string, roles ...models.UserRole) (*models.User, error) {
	actor, err := repo.User().GetByID(ctx, actorID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewPermissionError(actorID, "", resource, action, message)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if actor.Role == models.RoleAdmin {
		return actor, nil
	}
	for _, role := range roles {
		if actor.Role == role {
			return actor, nil
		}
	}
	return nil, NewPermissionError(actorID, "", resource, action, message)
}

func memberIDs(memberships []models.CourseMembership) []string {
	seen := make(map[string]struct{}, len(memberships))
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
	}
	return ids
}

// courseAudience returns every member of the course plus extra, the users
// whose cached course lists embed this course
func courseAudience(ctx context.Context, tx repositories.Repository, courseID string, extra ...string) ([]string, error) {
	memberships, err := tx.Membership().ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list course members: %w", err)
	}
	for _, id := range extra {
		if id != "" {
			memberships = append(memberships, models.CourseMembership{UserID: id})
		}
	}
	return memberIDs(memberships), nil
}

// userCourseAudience collects the courses a user belongs to and everyone who
// shares one of them. A change to the user's own record shows up in all of
// those cached views.
func userCourseAudience(ctx context.Context, tx repositories.Repository, userID string) ([]string, []string, error) {
	memberships, err := tx.Membership().ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	var courseIDs []string
	seen := make(map[string]struct{}, len(memberships))
	audience := []string{userID}
	for _, m := range memberships {
		if _, ok := seen[m.CourseID]; ok {
			continue
		}
		seen[m.CourseID] = struct{}{}
		courseIDs = append(courseIDs, m.CourseID)

		members, err := courseAudience(ctx, tx, m.CourseID)
		if err != nil {
			return nil, nil, err
		}
		audience = append(audience, members...)
	}
	return courseIDs, dedupe(audience), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
