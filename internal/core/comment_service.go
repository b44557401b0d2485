package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// commentService implements the CommentService interface.
type commentService struct {
	commentRepo db.CommentRepository
	userRepo    db.UserRepository
	challenges  ChallengeService
	notifier    Notifier
	activity    ActivityService
	logger      *zap.Logger
}

// NewCommentService creates a new CommentService instance.
func NewCommentService(
	commentRepo db.CommentRepository,
	userRepo db.UserRepository,
	challenges ChallengeService,
	notifier Notifier,
	activity ActivityService,
	logger *zap.Logger,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		challenges:  challenges,
		notifier:    notifier,
		activity:    activity,
		logger:      logger,
	}
}

// AddComment stores a comment by uid on postID, signed with the author's name.
func (s *commentService) AddComment(ctx context.Context, postID, uid, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text cannot be empty", ErrInvalidInput)
	}
	post, err := s.challenges.GetChallenge(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		CommentText: text,
		UserName:    author.Name,
		UID:         uid,
		CreatedAt:   time.Now().UTC(),
		PostID:      postID,
	}
	if _, err := s.commentRepo.Create(ctx, comment); err != nil {
		s.logger.Error("Error adding comment", zap.String("postId", postID), zap.Error(err))
		return nil, fmt.Errorf("failed to add comment to post '%s': %w", postID, err)
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionCommentAdd,
		TargetType: "COMMENT",
		TargetID:   comment.ID,
		Timestamp:  comment.CreatedAt,
		Details:    map[string]interface{}{"post_id": postID},
	})
	if post.UID != uid {
		sendNotification(ctx, s.notifier, s.logger, models.Notification{
			Kind:         models.NotificationComment,
			SenderID:     uid,
			RecipientIDs: []string{post.UID},
			Title:        author.Name + " commented on your post",
			Body:         text,
			Data:         map[string]string{"challenge_id": postID},
		})
	}
	return comment, nil
}

// GetCommentsOf returns the comments of postID, oldest first.
func (s *commentService) GetCommentsOf(ctx context.Context, postID string) ([]*models.Comment, error) {
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		s.logger.Error("Error getting comments", zap.String("postId", postID), zap.Error(err))
		return nil, fmt.Errorf("failed to get comments of post '%s': %w", postID, err)
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}
