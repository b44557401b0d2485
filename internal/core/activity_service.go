package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// activityService implements the ActivityService interface.
type activityService struct {
	activityRepo db.ActivityRepository
}

// NewActivityService creates a new ActivityService instance.
func NewActivityService(activityRepo db.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

// Record stores an activity log entry.
func (s *activityService) Record(ctx context.Context, entry models.ActivityLog) error {
	if s.activityRepo == nil {
		return fmt.Errorf("ActivityRepository not initialized in ActivityService")
	}
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create activity log via repository: %w", err)
	}
	return nil
}

// recordActivity writes an entry and only logs failures; the triggering
// operation has already succeeded.
func recordActivity(ctx context.Context, activity ActivityService, logger *zap.Logger, entry models.ActivityLog) {
	if activity == nil {
		return
	}
	if err := activity.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record activity",
			zap.String("action", entry.Action),
			zap.String("targetId", entry.TargetID),
			zap.Error(err))
	}
}

// sendNotification delivers n and only logs failures.
func sendNotification(ctx context.Context, notifier Notifier, logger *zap.Logger, n models.Notification) {
	if notifier == nil || len(n.RecipientIDs) == 0 {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.Warn("Failed to send notification",
			zap.String("kind", n.Kind),
			zap.Strings("recipients", n.RecipientIDs),
			zap.Error(err))
	}
}
