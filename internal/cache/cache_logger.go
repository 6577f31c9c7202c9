package cache

import (
	"context"
	"fmt"
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

// InvalidateAssignmentCache invalidates all assignment-related caches
func InvalidateAssignmentCache(ctx context.Context, cm *CacheManager, assignmentID uint, teacherID uint) {
	SafeDelete(ctx, cm.Assignment,
		fmt.Sprintf("id:%d", assignmentID),
		fmt.Sprintf("details:%d", assignmentID))

	SafeInvalidatePattern(ctx, cm.Assignment, fmt.Sprintf("teacher:%d:*", teacherID))
	SafeInvalidatePattern(ctx, cm.Assignment, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("assignment:%d:*", assignmentID))
}

// InvalidateSubmissionCache invalidates submission and stats caches touched
// by a new or regraded submission
func InvalidateSubmissionCache(ctx context.Context, cm *CacheManager, submissionID, assignmentID, studentID uint) {
	SafeDelete(ctx, cm.Fast,
		fmt.Sprintf("submission:id:%d", submissionID),
		fmt.Sprintf("submission:%d:answers", submissionID))

	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("assignment:%d:*", assignmentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("student:%d:*", studentID))
}
