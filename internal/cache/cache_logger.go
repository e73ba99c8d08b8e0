package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache drops a course's cached detail, every cached course
// list, and the cached course lists of the given members. Called after the
// transaction that changed the course has committed.
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID string, userIDs ...string) {
	InvalidateCoursesCache(ctx, cm, []string{courseID}, userIDs...)
}

// InvalidateCoursesCache is InvalidateCourseCache for several courses at once
func InvalidateCoursesCache(ctx context.Context, cm *CacheManager, courseIDs []string, userIDs ...string) {
	if cm == nil {
		return
	}

	if len(courseIDs) > 0 {
		keys := make([]string, 0, len(courseIDs))
		for _, id := range courseIDs {
			keys = append(keys, CourseDetailKey(id))
		}
		SafeDelete(ctx, cm.Course, keys...)
	}
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	InvalidateUserCache(ctx, cm, userIDs...)
}

// InvalidateUserCache drops the cached course lists of the given users
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userIDs ...string) {
	if cm == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs)*2)
	for _, id := range userIDs {
		keys = append(keys, UserCoursesKey(id), UserStudentCoursesKey(id))
	}
	SafeDelete(ctx, cm.User, keys...)
}
