package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"strive-backend-go/internal/models"
)

const challengesCollection = "challenges"

// firestoreChallengeRepository implements the ChallengeRepository interface using Firestore.
type firestoreChallengeRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreChallengeRepository creates a new challenge repository.
func NewFirestoreChallengeRepository(client *firestore.Client, logger *zap.Logger) ChallengeRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for ChallengeRepository.")
	}
	return &firestoreChallengeRepository{client: client, logger: logger}
}

// Create adds a challenge with an auto-generated ID and sets challenge.ID.
func (r *firestoreChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) (string, error) {
	if challenge.Likes == nil {
		challenge.Likes = []string{}
	}
	docRef := r.client.Collection(challengesCollection).NewDoc()
	challenge.ID = docRef.ID
	if _, err := docRef.Create(ctx, challenge); err != nil {
		return "", fmt.Errorf("failed to create challenge: %w", err)
	}
	return docRef.ID, nil
}

// GetByID retrieves a challenge document by its ID.
func (r *firestoreChallengeRepository) GetByID(ctx context.Context, id string) (*models.Challenge, error) {
	if id == "" {
		return nil, errors.New("challenge ID cannot be empty for GetByID operation")
	}
	docSnap, err := r.client.Collection(challengesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("challenge with ID '%s' not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get challenge with ID '%s': %w", id, err)
	}

	var challenge models.Challenge
	if err := docSnap.DataTo(&challenge); err != nil {
		return nil, fmt.Errorf("failed to decode challenge data for ID '%s': %w", id, err)
	}
	challenge.ID = docSnap.Ref.ID
	return &challenge, nil
}

// ListByUser returns every challenge posted by uid.
func (r *firestoreChallengeRepository) ListByUser(ctx context.Context, uid string) ([]*models.Challenge, error) {
	return r.collect(ctx, r.client.Collection(challengesCollection).Where("uid", "==", uid), "uid="+uid)
}

// ListByTitle returns every challenge posted during the period named title.
func (r *firestoreChallengeRepository) ListByTitle(ctx context.Context, title string) ([]*models.Challenge, error) {
	return r.collect(ctx, r.client.Collection(challengesCollection).Where("challenge_description", "==", title), "title="+title)
}

// ListByGroup returns every challenge posted in group gid.
func (r *firestoreChallengeRepository) ListByGroup(ctx context.Context, gid string) ([]*models.Challenge, error) {
	return r.collect(ctx, r.client.Collection(challengesCollection).Where("group_id", "==", gid), "group_id="+gid)
}

// List returns the first limit challenges.
func (r *firestoreChallengeRepository) List(ctx context.Context, limit int) ([]*models.Challenge, error) {
	if limit <= 0 {
		return []*models.Challenge{}, nil
	}
	return r.collect(ctx, r.client.Collection(challengesCollection).Limit(limit), fmt.Sprintf("limit=%d", limit))
}

// SetLikes replaces the likes array, leaving other fields untouched.
func (r *firestoreChallengeRepository) SetLikes(ctx context.Context, id string, likes []string) error {
	if likes == nil {
		likes = []string{}
	}
	_, err := r.client.Collection(challengesCollection).Doc(id).Set(ctx, map[string]interface{}{"likes": likes}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to update likes of challenge '%s': %w", id, err)
	}
	return nil
}

// AddLike adds uid to the likes array if absent.
func (r *firestoreChallengeRepository) AddLike(ctx context.Context, id, uid string) error {
	return r.updateLikes(ctx, id, firestore.ArrayUnion(uid))
}

// RemoveLike removes uid from the likes array.
func (r *firestoreChallengeRepository) RemoveLike(ctx context.Context, id, uid string) error {
	return r.updateLikes(ctx, id, firestore.ArrayRemove(uid))
}

func (r *firestoreChallengeRepository) updateLikes(ctx context.Context, id string, value interface{}) error {
	_, err := r.client.Collection(challengesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "likes", Value: value},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("challenge with ID '%s' not found: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update likes of challenge '%s': %w", id, err)
	}
	return nil
}

func (r *firestoreChallengeRepository) collect(ctx context.Context, query firestore.Query, desc string) ([]*models.Challenge, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	challenges := []*models.Challenge{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate challenges (%s): %w", desc, err)
		}

		var challenge models.Challenge
		if err := doc.DataTo(&challenge); err != nil {
			r.logger.Warn("Skipping undecodable challenge", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		challenge.ID = doc.Ref.ID
		challenges = append(challenges, &challenge)
	}
	return challenges, nil
}
