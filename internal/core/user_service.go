package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	images   ImageStore
	activity ActivityService
	guestID  string
	logger   *zap.Logger
}

// NewUserService creates a new UserService instance. guestID is the account
// served to callers without a session.
func NewUserService(userRepo db.UserRepository, images ImageStore, activity ActivityService, guestID string, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		images:   images,
		activity: activity,
		guestID:  guestID,
		logger:   logger,
	}
}

func (s *userService) GuestUserID() string {
	return s.guestID
}

// CreateUser writes the user document under uid, replacing any existing one.
func (s *userService) CreateUser(ctx context.Context, uid string, user *models.User) error {
	if uid == "" || user == nil {
		return fmt.Errorf("%w: uid and user are required", ErrInvalidInput)
	}
	user.UID = uid
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if err := s.userRepo.Set(ctx, user); err != nil {
		s.logger.Error("Error writing user", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to create user '%s': %w", uid, err)
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionUserCreate,
		TargetType: "USER",
		TargetID:   uid,
		Timestamp:  time.Now().UTC(),
		Details:    map[string]interface{}{"name": user.Name},
	})
	return nil
}

func (s *userService) GetUser(ctx context.Context, uid, callerID string) (*models.User, error) {
	id := uid
	if id == "" {
		id = callerID
	}
	if id == "" {
		id = s.guestID
	}
	return getUser(ctx, s.userRepo, s.logger, id)
}

func (s *userService) GetName(ctx context.Context, uid string) (string, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

func (s *userService) SetName(ctx context.Context, uid, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if err := s.userRepo.Merge(ctx, uid, map[string]interface{}{"name": name}); err != nil {
		s.logger.Error("Error setting user name", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to set name of user '%s': %w", uid, err)
	}
	return nil
}

func (s *userService) GetProfilePicture(ctx context.Context, uid string) (string, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return "", err
	}
	if user.ImageID == "" {
		return "", nil
	}
	url, err := s.images.URL(ctx, user.ImageID)
	if err != nil {
		s.logger.Error("Error resolving profile picture", zap.String("uid", uid), zap.String("imageId", user.ImageID), zap.Error(err))
		return "", fmt.Errorf("failed to resolve picture of user '%s': %w", uid, err)
	}
	return url, nil
}

// SetProfilePicture stores the image (fetching ImageURL when given) and
// records its id on the user.
func (s *userService) SetProfilePicture(ctx context.Context, uid string, req models.SetPictureRequest) (string, error) {
	imageID := req.ImageID
	if req.ImageURL != "" {
		id, err := s.images.UploadFromURL(ctx, req.ImageURL)
		if err != nil {
			s.logger.Error("Error uploading profile picture", zap.String("uid", uid), zap.Error(err))
			return "", fmt.Errorf("failed to upload picture of user '%s': %w", uid, err)
		}
		imageID = id
	}
	if imageID == "" {
		return "", ErrImageRequired
	}

	if err := s.userRepo.Merge(ctx, uid, map[string]interface{}{"image_id": imageID}); err != nil {
		s.logger.Error("Error setting profile picture", zap.String("uid", uid), zap.Error(err))
		return "", fmt.Errorf("failed to set picture of user '%s': %w", uid, err)
	}
	return imageID, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error("Error listing users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// RegisterPushToken stores the caller's Expo push token.
func (s *userService) RegisterPushToken(ctx context.Context, uid, token string) error {
	if _, err := expo.NewExponentPushToken(token); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.userRepo.Merge(ctx, uid, map[string]interface{}{"expoPushToken": token}); err != nil {
		s.logger.Error("Error storing push token", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to store push token of user '%s': %w", uid, err)
	}
	return nil
}

// getUser maps repository not-found errors to ErrUserNotFound.
func getUser(ctx context.Context, repo db.UserRepository, logger *zap.Logger, uid string) (*models.User, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrUserNotFound)
	}
	user, err := repo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: user with ID '%s'", ErrUserNotFound, uid)
		}
		logger.Error("Error getting user", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by ID '%s' from repository: %w", uid, err)
	}
	return user, nil
}
