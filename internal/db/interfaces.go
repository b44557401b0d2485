package db

import (
	"context"
	"time"

	"strive-backend-go/internal/models"
)

// UserRepository defines the interface for user data storage operations.
type UserRepository interface {
	GetByID(ctx context.Context, uid string) (*models.User, error)
	// GetMany resolves ids in order, skipping ids without a document.
	GetMany(ctx context.Context, uids []string) ([]*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	// Set overwrites the whole document.
	Set(ctx context.Context, user *models.User) error
	// Merge writes only the given top-level fields.
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
	AddGroup(ctx context.Context, uid, gid string) error
}

// ChallengeRepository defines the interface for challenge (post) storage operations.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) (string, error)
	GetByID(ctx context.Context, id string) (*models.Challenge, error)
	ListByUser(ctx context.Context, uid string) ([]*models.Challenge, error)
	ListByTitle(ctx context.Context, title string) ([]*models.Challenge, error)
	ListByGroup(ctx context.Context, gid string) ([]*models.Challenge, error)
	List(ctx context.Context, limit int) ([]*models.Challenge, error)
	SetLikes(ctx context.Context, id string, likes []string) error
	AddLike(ctx context.Context, id, uid string) error
	RemoveLike(ctx context.Context, id, uid string) error
}

// CommentRepository defines the interface for comment storage operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (string, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
}

// GroupRepository defines the interface for group storage operations.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) (string, error)
	GetByID(ctx context.Context, gid string) (*models.Group, error)
	GetMany(ctx context.Context, gids []string) ([]*models.Group, error)
	List(ctx context.Context) ([]*models.Group, error)
	SetUpdateDate(ctx context.Context, gid string, t time.Time) error
	AddMember(ctx context.Context, gid, uid string) error
}

// ChallengeDescriptionRepository reads the global challenge period record.
type ChallengeDescriptionRepository interface {
	Current(ctx context.Context) (*models.ChallengeDescription, error)
}

// ActivityRepository defines the interface for activity log storage operations.
type ActivityRepository interface {
	Create(ctx context.Context, entry models.ActivityLog) error
}
