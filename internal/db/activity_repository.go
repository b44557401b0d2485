package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"

	"strive-backend-go/internal/models"
)

const activityLogCollection = "activity_log"

type firestoreActivityRepository struct {
	client *firestore.Client
}

// NewFirestoreActivityRepository creates a new activity log repository.
func NewFirestoreActivityRepository(client *firestore.Client, logger *zap.Logger) ActivityRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for ActivityRepository.")
	}
	return &firestoreActivityRepository{client: client}
}

// Create appends an entry; the timestamp is set server-side.
func (r *firestoreActivityRepository) Create(ctx context.Context, entry models.ActivityLog) error {
	if _, _, err := r.client.Collection(activityLogCollection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to write activity log (%s by %s): %w", entry.Action, entry.UserID, err)
	}
	return nil
}
