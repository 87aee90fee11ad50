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

// InvalidateDoctorCaches drops everything derived from one doctor's data:
// the cached user row, availability windows and dashboard stats.
func InvalidateDoctorCaches(ctx context.Context, cm *CacheManager, doctorID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", doctorID))
	SafeInvalidatePattern(ctx, cm.Availability, fmt.Sprintf("doctor:%s:*", doctorID))
	SafeInvalidatePattern(ctx, cm.Stats, "dashboard:*")
}
