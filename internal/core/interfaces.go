package core

import (
	"context"
	"io"
	"time"

	"strive-backend-go/internal/models"
)

// UserService defines the interface for user profile operations.
type UserService interface {
	CreateUser(ctx context.Context, uid string, user *models.User) error
	// GetUser resolves an empty uid to callerID, and an empty callerID to the guest account.
	GetUser(ctx context.Context, uid, callerID string) (*models.User, error)
	GetName(ctx context.Context, uid string) (string, error)
	SetName(ctx context.Context, uid, name string) error
	// GetProfilePicture returns the download URL of the user's picture, or "" when unset.
	GetProfilePicture(ctx context.Context, uid string) (string, error)
	SetProfilePicture(ctx context.Context, uid string, req models.SetPictureRequest) (string, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	RegisterPushToken(ctx context.Context, uid, token string) error
	GuestUserID() string
}

// AuthService defines account creation and password sign-in.
type AuthService interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// InitializeProfile returns the user document, creating it when missing.
	// The boolean reports whether it was created.
	InitializeProfile(ctx context.Context, uid, email, displayName string) (*models.User, bool, error)
	ResetPassword(ctx context.Context, email string) error
}

// FriendService defines friendship and friend request operations.
type FriendService interface {
	AddFriend(ctx context.Context, uid, friendID string) error
	AcceptFriend(ctx context.Context, uid, friendID string) error
	RejectFriend(ctx context.Context, uid, friendID string) error
	RemoveFriendRequest(ctx context.Context, uid, friendID string) error
	GetFriends(ctx context.Context, uid string) ([]*models.User, error)
	GetRequestedFriends(ctx context.Context, uid string) ([]*models.User, error)
	GetFriendRequests(ctx context.Context, uid string) ([]*models.User, error)
	IsFriend(ctx context.Context, uid, friendID string) (bool, error)
	IsRequested(ctx context.Context, uid, friendID string) (bool, error)
	Status(ctx context.Context, uid, friendID string) (*models.FriendStatus, error)
	GetFriendSuggestions(ctx context.Context, uid string) ([]*models.User, error)
}

// ChallengeService defines post, like and feed operations.
type ChallengeService interface {
	CreateChallenge(ctx context.Context, uid string, req models.CreateChallengeRequest) (*models.Challenge, error)
	NewChallenge(ctx context.Context, challenge *models.Challenge) (string, error)
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	GetChallengesByUserID(ctx context.Context, uid string) ([]*models.Challenge, error)
	GetKChallenges(ctx context.Context, k int) ([]*models.Challenge, error)
	GetPostsByChallengeTitle(ctx context.Context, title string) ([]*models.Challenge, error)
	GetAllPostsOfGroup(ctx context.Context, gid string) ([]*models.Challenge, error)
	// UpdateLikesOf replaces the likes of id on behalf of uid. The new list may
	// differ from the stored one only by uid itself.
	UpdateLikesOf(ctx context.Context, id, uid string, likes []string) ([]string, error)
	GetLikesOf(ctx context.Context, id string) ([]string, error)
	// ToggleLike adds or removes uid from the likes and returns the new likes.
	ToggleLike(ctx context.Context, id, uid string) ([]string, error)
	HomeFeed(ctx context.Context, uid string) (*models.HomeFeed, error)
	MapPosts(ctx context.Context) (*models.MapView, error)
}

// CommentService defines comment operations.
type CommentService interface {
	AddComment(ctx context.Context, postID, uid, text string) (*models.Comment, error)
	GetCommentsOf(ctx context.Context, postID string) ([]*models.Comment, error)
}

// GroupService defines group operations.
type GroupService interface {
	NewGroup(ctx context.Context, creatorID string, req models.CreateGroupRequest) (*models.Group, error)
	GetGroup(ctx context.Context, gid string) (*models.Group, error)
	UpdateGroup(ctx context.Context, gid string, updateDate time.Time) error
	AddGroupToMemberGroups(ctx context.Context, uid, gid string) error
	JoinGroup(ctx context.Context, gid, uid string) (*models.Group, error)
	GetGroupsByUserID(ctx context.Context, uid string) ([]*models.Group, error)
	GetUsersInGroup(ctx context.Context, gid string) ([]*models.User, error)
	OtherGroups(ctx context.Context, uid, gid string) ([]*models.Group, error)
	NearbyGroups(ctx context.Context, lat, lon float64) ([]*models.Group, error)
}

// ChallengeDescriptionService reads the current challenge period.
type ChallengeDescriptionService interface {
	GetChallengeDescription(ctx context.Context) (*models.ChallengeDescription, error)
	Countdown(ctx context.Context, now time.Time) (*models.Countdown, error)
}

// ActivityService defines the interface for activity logging operations.
type ActivityService interface {
	Record(ctx context.Context, entry models.ActivityLog) error
}

// IdentityProvider manages accounts in the authentication backend.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
	// SendPasswordResetEmail lets the authentication backend deliver its own reset email.
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// ImageStore stores images under generated ids.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, contentType string) (string, error)
	UploadFromURL(ctx context.Context, url string) (string, error)
	URL(ctx context.Context, id string) (string, error)
}

// Notifier delivers push notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
