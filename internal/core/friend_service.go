package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// DefaultSuggestionCount is the number of friend suggestions returned when
// no other count is configured.
const DefaultSuggestionCount = 10

// friendService implements the FriendService interface.
type friendService struct {
	userRepo        db.UserRepository
	notifier        Notifier
	activity        ActivityService
	suggestionCount int
	shuffle         func(n int, swap func(i, j int))
	logger          *zap.Logger
}

// FriendServiceOption customises a FriendService.
type FriendServiceOption func(*friendService)

// WithSuggestionCount sets how many suggestions GetFriendSuggestions returns.
func WithSuggestionCount(n int) FriendServiceOption {
	return func(s *friendService) {
		if n > 0 {
			s.suggestionCount = n
		}
	}
}

// WithShuffle replaces the random permutation used to pick padding users.
func WithShuffle(shuffle func(n int, swap func(i, j int))) FriendServiceOption {
	return func(s *friendService) {
		s.shuffle = shuffle
	}
}

// NewFriendService creates a new FriendService instance.
func NewFriendService(userRepo db.UserRepository, notifier Notifier, activity ActivityService, logger *zap.Logger, opts ...FriendServiceOption) FriendService {
	s := &friendService{
		userRepo:        userRepo,
		notifier:        notifier,
		activity:        activity,
		suggestionCount: DefaultSuggestionCount,
		shuffle:         rand.Shuffle,
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *friendService) pair(ctx context.Context, uid, friendID string) (*models.User, *models.User, error) {
	if uid == friendID {
		return nil, nil, ErrCannotFriendSelf
	}
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, nil, err
	}
	friend, err := getUser(ctx, s.userRepo, s.logger, friendID)
	if err != nil {
		return nil, nil, err
	}
	return user, friend, nil
}

func (s *friendService) save(ctx context.Context, op string, users ...*models.User) error {
	for _, u := range users {
		if err := s.userRepo.Set(ctx, u); err != nil {
			s.logger.Error("Error writing user during "+op, zap.String("uid", u.UID), zap.Error(err))
			return fmt.Errorf("%s: failed to write user '%s': %w", op, u.UID, err)
		}
	}
	return nil
}

// AddFriend sends a friend request from uid to friendID.
func (s *friendService) AddFriend(ctx context.Context, uid, friendID string) error {
	user, friend, err := s.pair(ctx, uid, friendID)
	if err != nil {
		return err
	}
	if user.HasFriend(friendID) {
		return nil
	}

	if !user.HasRequested(friendID) {
		user.UserRequestedFriends = append(user.UserRequestedFriends, friendID)
	}
	if !containsString(friend.FriendsRequestedUser, uid) {
		friend.FriendsRequestedUser = append(friend.FriendsRequestedUser, uid)
	}
	if err := s.save(ctx, "add friend", user, friend); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionFriendRequest,
		TargetType: "USER",
		TargetID:   friendID,
		Timestamp:  time.Now().UTC(),
	})
	sendNotification(ctx, s.notifier, s.logger, models.Notification{
		Kind:         models.NotificationFriendRequest,
		SenderID:     uid,
		RecipientIDs: []string{friendID},
		Title:        "New friend request",
		Body:         user.Name + " wants to be your friend",
		Data:         map[string]string{"uid": uid},
	})
	return nil
}

// AcceptFriend accepts the request friendID sent to uid.
func (s *friendService) AcceptFriend(ctx context.Context, uid, friendID string) error {
	user, friend, err := s.pair(ctx, uid, friendID)
	if err != nil {
		return err
	}
	if user.HasFriend(friendID) {
		return nil
	}
	if !containsString(user.FriendsRequestedUser, friendID) {
		return fmt.Errorf("%w: '%s' has not asked '%s'", ErrNoPendingRequest, friendID, uid)
	}

	user.Friends = append(user.Friends, friendID)
	if !friend.HasFriend(uid) {
		friend.Friends = append(friend.Friends, uid)
	}
	user.FriendsRequestedUser = models.RemoveID(user.FriendsRequestedUser, friendID)
	friend.UserRequestedFriends = models.RemoveID(friend.UserRequestedFriends, uid)
	if err := s.save(ctx, "accept friend", user, friend); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionFriendAccept,
		TargetType: "USER",
		TargetID:   friendID,
		Timestamp:  time.Now().UTC(),
	})
	sendNotification(ctx, s.notifier, s.logger, models.Notification{
		Kind:         models.NotificationFriendAccepted,
		SenderID:     uid,
		RecipientIDs: []string{friendID},
		Title:        "Friend request accepted",
		Body:         user.Name + " accepted your friend request",
		Data:         map[string]string{"uid": uid},
	})
	return nil
}

// RejectFriend declines the request friendID sent to uid.
func (s *friendService) RejectFriend(ctx context.Context, uid, friendID string) error {
	user, friend, err := s.pair(ctx, uid, friendID)
	if err != nil {
		return err
	}
	user.FriendsRequestedUser = models.RemoveID(user.FriendsRequestedUser, friendID)
	friend.UserRequestedFriends = models.RemoveID(friend.UserRequestedFriends, uid)
	if err := s.save(ctx, "reject friend", user, friend); err != nil {
		return err
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionFriendReject,
		TargetType: "USER",
		TargetID:   friendID,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// RemoveFriendRequest withdraws the request uid sent to friendID.
func (s *friendService) RemoveFriendRequest(ctx context.Context, uid, friendID string) error {
	user, friend, err := s.pair(ctx, uid, friendID)
	if err != nil {
		return err
	}
	user.UserRequestedFriends = models.RemoveID(user.UserRequestedFriends, friendID)
	friend.FriendsRequestedUser = models.RemoveID(friend.FriendsRequestedUser, uid)
	return s.save(ctx, "remove friend request", user, friend)
}

func (s *friendService) resolve(ctx context.Context, uid string, pick func(*models.User) []string) ([]*models.User, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetMany(ctx, pick(user))
	if err != nil {
		s.logger.Error("Error resolving users", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to resolve users related to '%s': %w", uid, err)
	}
	return users, nil
}

func (s *friendService) GetFriends(ctx context.Context, uid string) ([]*models.User, error) {
	return s.resolve(ctx, uid, func(u *models.User) []string { return u.Friends })
}

func (s *friendService) GetRequestedFriends(ctx context.Context, uid string) ([]*models.User, error) {
	return s.resolve(ctx, uid, func(u *models.User) []string { return u.UserRequestedFriends })
}

func (s *friendService) GetFriendRequests(ctx context.Context, uid string) ([]*models.User, error) {
	return s.resolve(ctx, uid, func(u *models.User) []string { return u.FriendsRequestedUser })
}

func (s *friendService) IsFriend(ctx context.Context, uid, friendID string) (bool, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return false, err
	}
	return user.HasFriend(friendID), nil
}

func (s *friendService) IsRequested(ctx context.Context, uid, friendID string) (bool, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return false, err
	}
	return user.HasRequested(friendID), nil
}

func (s *friendService) Status(ctx context.Context, uid, friendID string) (*models.FriendStatus, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}
	return &models.FriendStatus{
		IsFriend:    user.HasFriend(friendID),
		IsRequested: user.HasRequested(friendID),
	}, nil
}

// GetFriendSuggestions returns friends of friends first, then random other
// users, never the user, an existing friend or the guest account.
func (s *friendService) GetFriendSuggestions(ctx context.Context, uid string) ([]*models.User, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{uid: true}
	for _, id := range user.Friends {
		seen[id] = true
	}

	suggestions := []*models.User{}
	friends, err := s.userRepo.GetMany(ctx, user.Friends)
	if err != nil {
		s.logger.Error("Error getting friends for suggestions", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get friends of '%s': %w", uid, err)
	}
	var candidates []string
	for _, friend := range friends {
		for _, id := range friend.Friends {
			if !seen[id] {
				seen[id] = true
				candidates = append(candidates, id)
			}
		}
	}
	if len(candidates) > 0 {
		fof, err := s.userRepo.GetMany(ctx, candidates)
		if err != nil {
			s.logger.Error("Error getting friends of friends", zap.String("uid", uid), zap.Error(err))
			return nil, fmt.Errorf("failed to get friends of friends of '%s': %w", uid, err)
		}
		for _, u := range fof {
			if !u.IsGuest() {
				suggestions = append(suggestions, u)
			}
		}
	}

	if len(suggestions) < s.suggestionCount {
		all, err := s.userRepo.List(ctx)
		if err != nil {
			s.logger.Error("Error listing users for suggestions", zap.String("uid", uid), zap.Error(err))
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		s.shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
		for _, u := range all {
			if len(suggestions) >= s.suggestionCount {
				break
			}
			if seen[u.UID] || u.IsGuest() {
				continue
			}
			seen[u.UID] = true
			suggestions = append(suggestions, u)
		}
	}

	if len(suggestions) > s.suggestionCount {
		suggestions = suggestions[:s.suggestionCount]
	}
	return suggestions, nil
}

func containsString(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
