package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"strive-backend-go/internal/models"
)

const commentsCollection = "comments"

type firestoreCommentRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreCommentRepository creates a new comment repository.
func NewFirestoreCommentRepository(client *firestore.Client, logger *zap.Logger) CommentRepository {
	if client == nil {
		logger.Fatal("Firestore client is not initialized for CommentRepository.")
	}
	return &firestoreCommentRepository{client: client, logger: logger}
}

func (r *firestoreCommentRepository) Create(ctx context.Context, comment *models.Comment) (string, error) {
	docRef, _, err := r.client.Collection(commentsCollection).Add(ctx, comment)
	if err != nil {
		return "", fmt.Errorf("failed to create comment on post '%s': %w", comment.PostID, err)
	}
	comment.ID = docRef.ID
	return docRef.ID, nil
}

func (r *firestoreCommentRepository) ListByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	iter := r.client.Collection(commentsCollection).Where("post_id", "==", postID).Documents(ctx)
	defer iter.Stop()

	comments := []*models.Comment{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate comments of post '%s': %w", postID, err)
		}
		var comment models.Comment
		if err := doc.DataTo(&comment); err != nil {
			r.logger.Warn("Skipping undecodable comment", zap.String("id", doc.Ref.ID), zap.Error(err))
			continue
		}
		comment.ID = doc.Ref.ID
		comments = append(comments, &comment)
	}
	return comments, nil
}
