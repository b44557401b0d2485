package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/type/latlng"

	"strive-backend-go/internal/db"
	"strive-backend-go/internal/models"
)

// DefaultMapCenter is where the map opens when the client has no location.
var DefaultMapCenter = models.Point{Latitude: 43.6763, Longitude: 7.0122}

// placeholderDescription is shown when no challenge period is configured.
var placeholderDescription = models.ChallengeDescription{
	Title:       "Challenge Title",
	Description: "Challenge Description",
	EndDate:     time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
}

// challengeService implements the ChallengeService interface.
type challengeService struct {
	challengeRepo db.ChallengeRepository
	groupRepo     db.GroupRepository
	userRepo      db.UserRepository
	descriptions  ChallengeDescriptionService
	activity      ActivityService
	now           func() time.Time
	logger        *zap.Logger
}

// NewChallengeService creates a new ChallengeService instance.
func NewChallengeService(
	challengeRepo db.ChallengeRepository,
	groupRepo db.GroupRepository,
	userRepo db.UserRepository,
	descriptions ChallengeDescriptionService,
	activity ActivityService,
	logger *zap.Logger,
) ChallengeService {
	return &challengeService{
		challengeRepo: challengeRepo,
		groupRepo:     groupRepo,
		userRepo:      userRepo,
		descriptions:  descriptions,
		activity:      activity,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

// ToLatLng converts a client point into a Firestore GeoPoint.
func ToLatLng(p *models.Point) *latlng.LatLng {
	if p == nil {
		return nil
	}
	return &latlng.LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
}

// CreateChallenge posts a challenge for uid in the current period. Posting to
// a real group refreshes the group's update date.
func (s *challengeService) CreateChallenge(ctx context.Context, uid string, req models.CreateChallengeRequest) (*models.Challenge, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	desc, err := s.descriptions.GetChallengeDescription(ctx)
	if err != nil {
		return nil, err
	}

	groupID := strings.TrimSpace(req.GroupID)
	if models.BelongsToGroup(groupID) {
		if _, err := s.groupRepo.GetByID(ctx, groupID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, fmt.Errorf("%w: group with ID '%s'", ErrGroupNotFound, groupID)
			}
			s.logger.Error("Error getting group for new challenge", zap.String("gid", groupID), zap.Error(err))
			return nil, fmt.Errorf("failed to get group '%s': %w", groupID, err)
		}
	}

	date := s.now()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}
	challenge := &models.Challenge{
		Caption:              req.Caption,
		UID:                  uid,
		ImageID:              req.ImageID,
		Date:                 date,
		Likes:                []string{},
		Location:             ToLatLng(req.Location),
		GroupID:              groupID,
		ChallengeDescription: desc.Title,
	}
	if _, err := s.NewChallenge(ctx, challenge); err != nil {
		return nil, err
	}

	if models.BelongsToGroup(groupID) {
		if err := s.groupRepo.SetUpdateDate(ctx, groupID, s.now()); err != nil {
			s.logger.Error("Error updating group date", zap.String("gid", groupID), zap.Error(err))
			return nil, fmt.Errorf("failed to update group '%s': %w", groupID, err)
		}
	}

	recordActivity(ctx, s.activity, s.logger, models.ActivityLog{
		UserID:     uid,
		Action:     models.ActionChallengeCreate,
		TargetType: "CHALLENGE",
		TargetID:   challenge.ID,
		Timestamp:  s.now(),
		Details: map[string]interface{}{
			"group_id":              groupID,
			"challenge_description": desc.Title,
		},
	})
	return challenge, nil
}

// NewChallenge stores challenge as given and returns its new id.
func (s *challengeService) NewChallenge(ctx context.Context, challenge *models.Challenge) (string, error) {
	id, err := s.challengeRepo.Create(ctx, challenge)
	if err != nil {
		s.logger.Error("Error writing challenge", zap.String("uid", challenge.UID), zap.Error(err))
		return "", fmt.Errorf("failed to create challenge: %w", err)
	}
	return id, nil
}

func (s *challengeService) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: challenge with ID '%s'", ErrChallengeNotFound, id)
		}
		s.logger.Error("Error getting challenge", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get challenge '%s': %w", id, err)
	}
	return challenge, nil
}

func (s *challengeService) GetChallengesByUserID(ctx context.Context, uid string) ([]*models.Challenge, error) {
	challenges, err := s.challengeRepo.ListByUser(ctx, uid)
	if err != nil {
		s.logger.Error("Error getting challenges by user", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get challenges of user '%s': %w", uid, err)
	}
	return challenges, nil
}

func (s *challengeService) GetKChallenges(ctx context.Context, k int) ([]*models.Challenge, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: k must not be negative", ErrInvalidInput)
	}
	challenges, err := s.challengeRepo.List(ctx, k)
	if err != nil {
		s.logger.Error("Error getting challenges", zap.Int("k", k), zap.Error(err))
		return nil, fmt.Errorf("failed to get %d challenges: %w", k, err)
	}
	return challenges, nil
}

func (s *challengeService) GetPostsByChallengeTitle(ctx context.Context, title string) ([]*models.Challenge, error) {
	challenges, err := s.challengeRepo.ListByTitle(ctx, title)
	if err != nil {
		s.logger.Error("Error getting posts by challenge title", zap.String("title", title), zap.Error(err))
		return nil, fmt.Errorf("failed to get posts of challenge '%s': %w", title, err)
	}
	return challenges, nil
}

func (s *challengeService) GetAllPostsOfGroup(ctx context.Context, gid string) ([]*models.Challenge, error) {
	challenges, err := s.challengeRepo.ListByGroup(ctx, gid)
	if err != nil {
		s.logger.Error("Error getting posts of group", zap.String("gid", gid), zap.Error(err))
		return nil, fmt.Errorf("failed to get posts of group '%s': %w", gid, err)
	}
	return challenges, nil
}

func (s *challengeService) UpdateLikesOf(ctx context.Context, id, uid string, likes []string) ([]string, error) {
	if id == "" || uid == "" {
		return nil, fmt.Errorf("%w: challenge id and caller are required", ErrInvalidInput)
	}
	current, err := s.GetLikesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	likes = dedupe(likes)
	if changed := symmetricDifference(current, likes); len(changed) > 1 || (len(changed) == 1 && changed[0] != uid) {
		return nil, fmt.Errorf("%w: challenge '%s'", ErrForeignLike, id)
	}
	if err := s.challengeRepo.SetLikes(ctx, id, likes); err != nil {
		s.logger.Error("Error updating likes", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update likes of challenge '%s': %w", id, err)
	}
	return likes, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !containsString(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// symmetricDifference lists the ids present in exactly one of a and b.
func symmetricDifference(a, b []string) []string {
	var out []string
	for _, id := range a {
		if !containsString(b, id) {
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !containsString(a, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s *challengeService) GetLikesOf(ctx context.Context, id string) ([]string, error) {
	challenge, err := s.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge.Likes == nil {
		return []string{}, nil
	}
	return challenge.Likes, nil
}

func (s *challengeService) ToggleLike(ctx context.Context, id, uid string) ([]string, error) {
	challenge, err := s.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}
	if containsString(challenge.Likes, uid) {
		err = s.challengeRepo.RemoveLike(ctx, id, uid)
	} else {
		err = s.challengeRepo.AddLike(ctx, id, uid)
	}
	if err != nil {
		s.logger.Error("Error toggling like", zap.String("id", id), zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to toggle like on challenge '%s': %w", id, err)
	}
	return s.GetLikesOf(ctx, id)
}

// currentDescription falls back to a placeholder when no period is configured.
func (s *challengeService) currentDescription(ctx context.Context) (*models.ChallengeDescription, error) {
	desc, err := s.descriptions.GetChallengeDescription(ctx)
	if err != nil {
		if errors.Is(err, ErrChallengeDescriptionNotFound) {
			s.logger.Warn("No challenge description, using placeholder")
			d := placeholderDescription
			return &d, nil
		}
		return nil, err
	}
	return desc, nil
}

// HomeFeed assembles the home screen of uid.
func (s *challengeService) HomeFeed(ctx context.Context, uid string) (*models.HomeFeed, error) {
	user, err := getUser(ctx, s.userRepo, s.logger, uid)
	if err != nil {
		return nil, err
	}
	desc, err := s.currentDescription(ctx)
	if err != nil {
		return nil, err
	}

	challenges, err := s.GetPostsByChallengeTitle(ctx, desc.Title)
	if err != nil {
		return nil, err
	}
	SortByDateDesc(challenges)

	fromFriends := []*models.Challenge{}
	for _, c := range challenges {
		if user.HasFriend(c.UID) {
			fromFriends = append(fromFriends, c)
		}
	}

	groups, err := s.groupRepo.GetMany(ctx, user.Groups)
	if err != nil {
		s.logger.Error("Error getting groups for home feed", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get groups of user '%s': %w", uid, err)
	}

	return &models.HomeFeed{
		UserIsGuest:           user.IsGuest(),
		ChallengeDescription:  *desc,
		Challenges:            challenges,
		ChallengesFromFriends: fromFriends,
		Groups:                groups,
	}, nil
}

// MapPosts returns the located posts of the current period.
func (s *challengeService) MapPosts(ctx context.Context) (*models.MapView, error) {
	desc, err := s.currentDescription(ctx)
	if err != nil {
		return nil, err
	}
	challenges, err := s.GetPostsByChallengeTitle(ctx, desc.Title)
	if err != nil {
		return nil, err
	}

	located := []*models.Challenge{}
	for _, c := range challenges {
		if c.HasLocation() {
			located = append(located, c)
		}
	}
	return &models.MapView{DefaultCenter: DefaultMapCenter, Challenges: located}, nil
}

// SortByDateDesc orders challenges newest first. Undated posts go last and
// keep their relative order.
func SortByDateDesc(challenges []*models.Challenge) {
	sort.SliceStable(challenges, func(i, j int) bool {
		a, b := challenges[i].Date, challenges[j].Date
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
}
