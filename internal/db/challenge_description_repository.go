package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"strive-backend-go/internal/models"
)

const challengeDescriptionCollection = "challenge_description"

type firestoreChallengeDescriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreChallengeDescriptionRepository creates a repository for the
// global challenge period record.
func NewFirestoreChallengeDescriptionRepository(client *firestore.Client, logger *zap.Logger) ChallengeDescriptionRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for ChallengeDescriptionRepository.")
	}
	return &firestoreChallengeDescriptionRepository{client: client}
}

// Current returns the first document of the collection.
func (r *firestoreChallengeDescriptionRepository) Current(ctx context.Context) (*models.ChallengeDescription, error) {
	iter := r.client.Collection(challengeDescriptionCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("no challenge description: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge description: %w", err)
	}

	var desc models.ChallengeDescription
	if err := doc.DataTo(&desc); err != nil {
		return nil, fmt.Errorf("failed to decode challenge description '%s': %w", doc.Ref.ID, err)
	}
	return &desc, nil
}
